// Copyright 2025 Nguyen Nhat Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pagination

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"foodlog/modules/clock"
	"foodlog/modules/hmac"

	"github.com/gofrs/uuid/v5"
)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

type row struct {
	ID        uuid.UUID
	CreatedAt time.Time
}

func (r row) PagePivot() Pivot { return Pivot{CreatedAt: r.CreatedAt, ID: r.ID} }

// table is an in-memory store ordered like the SQL adapters.
type table struct {
	rows  []row
	calls []Bounds
}

func (t *table) insert(r row) {
	t.rows = append(t.rows, r)
	slices.SortFunc(t.rows, func(a, b row) int {
		switch {
		case a.ID == b.ID:
			return 0
		case Less(a.PagePivot(), b.PagePivot()):
			return -1
		default:
			return 1
		}
	})
}

func (t *table) fetch(_ context.Context, b Bounds) ([]row, int, error) {
	t.calls = append(t.calls, b)
	var window []row
	for _, r := range t.rows {
		if b.After != nil && !Less(*b.After, r.PagePivot()) {
			continue
		}
		window = append(window, r)
	}
	if b.After == nil && b.Offset > 0 {
		if b.Offset >= len(window) {
			window = nil
		} else {
			window = window[b.Offset:]
		}
	}
	if len(window) > b.Limit {
		window = window[:b.Limit]
	}
	return window, len(t.rows), nil
}

func newTable(t *testing.T, n int, base time.Time) *table {
	t.Helper()
	tbl := &table{}
	for i := range n {
		// pairs share a timestamp so the id tie-break is exercised
		tbl.insert(row{ID: uuid.Must(uuid.NewV4()), CreatedAt: base.Add(time.Duration(i/2) * time.Second)})
	}
	return tbl
}

func newPaginator(t *testing.T, clk clock.Clock) *Paginator {
	t.Helper()
	signer, err := hmac.NewHMACSigner([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	return New(signer, WithClock(clk), WithCursorTTL(time.Hour))
}

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// ---------------------------------------------------------------------------
// Request parsing
// ---------------------------------------------------------------------------

func TestParseRequest(t *testing.T) {
	tests := []struct {
		query string
		want  Request
	}{
		{"", Request{Mode: ModeOffset, Page: 1, Limit: DefaultLimit}},
		{"page=3&limit=5", Request{Mode: ModeOffset, Page: 3, Limit: 5}},
		{"page=0&limit=0", Request{Mode: ModeOffset, Page: 1, Limit: DefaultLimit}},
		{"page=-4&limit=-1", Request{Mode: ModeOffset, Page: 1, Limit: DefaultLimit}},
		{"limit=1000", Request{Mode: ModeOffset, Page: 1, Limit: MaxLimit}},
		{"cursor=", Request{Mode: ModeCursor, Limit: DefaultLimit}},
		{"cursor=abc&limit=7&page=9", Request{Mode: ModeCursor, Cursor: "abc", Limit: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, err := ParseRequest(q)
			if err != nil {
				t.Fatalf("ParseRequest: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseRequest_NonNumeric(t *testing.T) {
	for _, query := range []string{"page=abc", "limit=1.5", "cursor=x&limit=ten"} {
		q, _ := url.ParseQuery(query)
		if _, err := ParseRequest(q); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("%s: expected ErrInvalidParams, got %v", query, err)
		}
	}
}

func TestParseRequest_PageOutOfRange(t *testing.T) {
	q, _ := url.ParseQuery("page=4611686018427387905&limit=12")
	if _, err := ParseRequest(q); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}

	q, _ = url.ParseQuery("page=" + strconv.Itoa(MaxPage) + "&limit=50")
	got, err := ParseRequest(q)
	if err != nil {
		t.Fatalf("ParseRequest at MaxPage: %v", err)
	}
	if got.Page != MaxPage {
		t.Fatalf("page = %d, want %d", got.Page, MaxPage)
	}
}

// ---------------------------------------------------------------------------
// Offset mode
// ---------------------------------------------------------------------------

func TestPaginate_OffsetWalksCeilPages(t *testing.T) {
	sizes := []struct{ n, limit int }{{0, 12}, {1, 12}, {12, 12}, {13, 12}, {25, 5}, {7, 3}}
	for _, s := range sizes {
		tbl := newTable(t, s.n, epoch)
		p := newPaginator(t, &clock.Fixed{T: epoch})

		wantPages := (s.n + s.limit - 1) / s.limit
		seen := 0
		pages := 0
		for page := 1; ; page++ {
			env, err := Paginate(context.Background(), p, NewOffsetRequest(page, s.limit), tbl.fetch)
			if err != nil {
				t.Fatalf("n=%d page=%d: %v", s.n, page, err)
			}
			if env.Total != s.n {
				t.Fatalf("total = %d, want %d", env.Total, s.n)
			}
			if env.NextCursor != nil {
				t.Fatalf("offset page carried a cursor")
			}
			seen += len(env.Data)
			if len(env.Data) > 0 {
				pages++
			}
			if !env.HasMore {
				if env.NextPage != nil {
					t.Fatalf("last page has nextPage %d", *env.NextPage)
				}
				break
			}
			if env.NextPage == nil || *env.NextPage != page+1 {
				t.Fatalf("nextPage = %v, want %d", env.NextPage, page+1)
			}
		}
		if pages != wantPages {
			t.Errorf("n=%d limit=%d: %d pages, want %d", s.n, s.limit, pages, wantPages)
		}
		if seen != s.n {
			t.Errorf("n=%d: saw %d rows", s.n, seen)
		}
	}
}

func TestPaginate_OffsetBounds(t *testing.T) {
	tbl := newTable(t, 30, epoch)
	p := newPaginator(t, &clock.Fixed{T: epoch})

	env, err := Paginate(context.Background(), p, NewOffsetRequest(3, 10), tbl.fetch)
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	got := tbl.calls[0]
	if got.Offset != 20 || got.Limit != 10 || got.After != nil {
		t.Fatalf("bounds = %+v", got)
	}
	if env.Page != 3 || env.HasMore {
		t.Fatalf("env page=%d hasMore=%v", env.Page, env.HasMore)
	}
	if !env.Timestamp.Equal(epoch) {
		t.Fatalf("timestamp = %v", env.Timestamp)
	}
}

func TestPaginate_OffsetFarPageDoesNotWrap(t *testing.T) {
	tbl := newTable(t, 30, epoch)
	p := newPaginator(t, &clock.Fixed{T: epoch})

	env, err := Paginate(context.Background(), p, NewOffsetRequest(MaxPage, MaxLimit), tbl.fetch)
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	if off := tbl.calls[0].Offset; off != (MaxPage-1)*MaxLimit || off <= 0 {
		t.Fatalf("offset handed to store = %d", off)
	}
	if len(env.Data) != 0 || env.HasMore || env.NextPage != nil {
		t.Fatalf("far page: len=%d hasMore=%v nextPage=%v", len(env.Data), env.HasMore, env.NextPage)
	}

	_, err = Paginate(context.Background(), p, Request{Mode: ModeOffset, Page: MaxPage + 1, Limit: MaxLimit}, tbl.fetch)
	if !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
	if len(tbl.calls) != 1 {
		t.Fatalf("store called for an out-of-range page")
	}
}

func TestPaginate_EmptyResult(t *testing.T) {
	p := newPaginator(t, &clock.Fixed{T: epoch})
	empty := &table{}

	for _, req := range []Request{NewOffsetRequest(1, 12), NewCursorRequest("", 12)} {
		env, err := Paginate(context.Background(), p, req, empty.fetch)
		if err != nil {
			t.Fatalf("%s: %v", req.Mode, err)
		}
		if env.Data == nil || len(env.Data) != 0 || env.Total != 0 || env.HasMore {
			t.Fatalf("%s: unexpected envelope %+v", req.Mode, env)
		}
	}
}

// ---------------------------------------------------------------------------
// Cursor mode
// ---------------------------------------------------------------------------

func TestPaginate_CursorNeverRepeatsUnderInserts(t *testing.T) {
	clk := &clock.Fixed{T: epoch}
	tbl := newTable(t, 23, epoch)
	original := slices.Clone(tbl.rows)
	p := newPaginator(t, clk)

	seen := map[uuid.UUID]bool{}
	cursor := ""
	for i := 0; ; i++ {
		env, err := Paginate(context.Background(), p, NewCursorRequest(cursor, 5), tbl.fetch)
		if err != nil {
			t.Fatalf("page %d: %v", i, err)
		}
		if env.Page != 0 || env.NextPage != nil {
			t.Fatalf("cursor page reported offset metadata: %+v", env)
		}
		for _, r := range env.Data {
			if seen[r.ID] {
				t.Fatalf("row %s returned twice", r.ID)
			}
			seen[r.ID] = true
		}

		// concurrent writers add newer rows between calls
		tbl.insert(row{ID: uuid.Must(uuid.NewV4()), CreatedAt: epoch.Add(time.Hour + time.Duration(i)*time.Second)})

		if !env.HasMore {
			if env.NextCursor != nil {
				t.Fatalf("exhausted page has a cursor")
			}
			break
		}
		if env.NextCursor == nil {
			t.Fatalf("hasMore without cursor")
		}
		if tbl.calls[len(tbl.calls)-1].Limit != 6 {
			t.Fatalf("store not asked for limit+1 rows")
		}
		cursor = *env.NextCursor
	}

	for _, r := range original {
		if !seen[r.ID] {
			t.Fatalf("row %s never returned", r.ID)
		}
	}
}

func TestPaginate_CursorExactFinalPage(t *testing.T) {
	tbl := newTable(t, 10, epoch)
	p := newPaginator(t, &clock.Fixed{T: epoch})

	first, err := Paginate(context.Background(), p, NewCursorRequest("", 5), tbl.fetch)
	if err != nil || !first.HasMore {
		t.Fatalf("first page: hasMore=%v err=%v", first.HasMore, err)
	}
	second, err := Paginate(context.Background(), p, NewCursorRequest(*first.NextCursor, 5), tbl.fetch)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Data) != 5 || second.HasMore || second.NextCursor != nil {
		t.Fatalf("second page: len=%d hasMore=%v", len(second.Data), second.HasMore)
	}
}

func TestPaginate_CursorRejected(t *testing.T) {
	clk := &clock.Fixed{T: epoch}
	tbl := newTable(t, 10, epoch)
	p := newPaginator(t, clk)

	env, err := Paginate(context.Background(), p, NewCursorRequest("", 3), tbl.fetch)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	valid := *env.NextCursor

	otherSigner, _ := hmac.NewHMACSigner([]byte("other"))
	foreign := New(otherSigner, WithClock(clk))
	foreignEnv, _ := Paginate(context.Background(), foreign, NewCursorRequest("", 3), tbl.fetch)

	payload, sig, _ := strings.Cut(valid, ".")
	cases := map[string]string{
		"garbage":  "not-a-cursor",
		"tampered": payload + "x." + sig,
		"foreign":  *foreignEnv.NextCursor,
	}
	for name, c := range cases {
		if _, err := Paginate(context.Background(), p, NewCursorRequest(c, 3), tbl.fetch); !errors.Is(err, ErrInvalidCursor) {
			t.Errorf("%s: expected ErrInvalidCursor, got %v", name, err)
		}
	}

	clk.Advance(2 * time.Hour)
	if _, err := Paginate(context.Background(), p, NewCursorRequest(valid, 3), tbl.fetch); !errors.Is(err, ErrInvalidCursor) {
		t.Errorf("expired: expected ErrInvalidCursor, got %v", err)
	}
}

func TestPaginate_FetchError(t *testing.T) {
	p := newPaginator(t, &clock.Fixed{T: epoch})
	boom := errors.New("boom")
	fetch := func(context.Context, Bounds) ([]row, int, error) { return nil, 0, boom }

	if _, err := Paginate(context.Background(), p, NewOffsetRequest(1, 5), fetch); !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestMap(t *testing.T) {
	next := 2
	env := Envelope[int]{Data: []int{1, 2}, Total: 5, Page: 1, Limit: 2, HasMore: true, NextPage: &next}
	out := Map(env, func(v int) string { return strings.Repeat("x", v) })
	if len(out.Data) != 2 || out.Data[1] != "xx" || out.Total != 5 || *out.NextPage != 2 {
		t.Fatalf("Map = %+v", out)
	}
}
