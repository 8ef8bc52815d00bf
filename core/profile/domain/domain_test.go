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

package domain

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"foodlog/modules/cache"
	"foodlog/modules/clock"
	"foodlog/modules/hmac"
	"foodlog/modules/pagination"
	"foodlog/modules/telemetry"

	"github.com/gofrs/uuid/v5"
	"github.com/oapi-codegen/nullable"
)

// ---------------------------------------------------------------------------
// fakes
// ---------------------------------------------------------------------------

type fakeStore struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*Profile
	seq      int64
	inserts  int

	readErr error
	seqErr  error
	// codeTaken makes InsertProfile report ErrDuplicateCode for these codes.
	codeTaken map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: map[uuid.UUID]*Profile{}, codeTaken: map[string]bool{}}
}

func (f *fakeStore) add(p Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[p.ID] = &p
}

func (f *fakeStore) GetProfileByID(_ context.Context, id uuid.UUID) (*Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetProfileByCode(_ context.Context, code string) (*Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	for _, p := range f.profiles {
		if p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrProfileNotFound
}

func (f *fakeStore) SearchPublicProfiles(_ context.Context, q string, b pagination.Bounds) ([]Profile, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []Profile
	for _, p := range f.profiles {
		if p.IsPublic && (q == "" || p.Code == q || p.DisplayName == q) {
			all = append(all, *p)
		}
	}
	slices.SortFunc(all, func(a, b Profile) int {
		if pagination.Less(a.PagePivot(), b.PagePivot()) {
			return -1
		}
		return 1
	})
	total := len(all)
	if b.After != nil {
		idx := slices.IndexFunc(all, func(p Profile) bool { return pagination.Less(*b.After, p.PagePivot()) })
		if idx < 0 {
			idx = len(all)
		}
		all = all[idx:]
	}
	all = all[min(b.Offset, len(all)):]
	return all[:min(b.Limit, len(all))], total, nil
}

func (f *fakeStore) NextCodeNumber(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seqErr != nil {
		return 0, f.seqErr
	}
	f.seq++
	return f.seq, nil
}

func (f *fakeStore) InsertProfile(_ context.Context, p NewProfile) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.codeTaken[p.Code] {
		return false, ErrDuplicateCode
	}
	if _, ok := f.profiles[p.ID]; ok {
		return false, nil
	}
	f.inserts++
	f.profiles[p.ID] = &Profile{
		ID:          p.ID,
		Code:        p.Code,
		DisplayName: p.DisplayName,
		IsPublic:    p.IsPublic,
	}
	return true, nil
}

func (f *fakeStore) ModifyProfile(_ context.Context, id uuid.UUID, params ModifyProfileParams) (*Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	if v, ok := present(params.DisplayName); ok {
		p.DisplayName = v
	}
	if params.Bio.IsSpecified() {
		if params.Bio.IsNull() {
			p.Bio = nil
		} else {
			v := params.Bio.MustGet()
			p.Bio = &v
		}
	}
	if params.IsPublic.IsSpecified() {
		p.IsPublic = params.IsPublic.MustGet()
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx ProfileWriteTx) error) error {
	return fn(ctx, f)
}

func (f *fakeStore) WithTimeoutTx(ctx context.Context, _ time.Duration, fn func(ctx context.Context, tx ProfileWriteTx) error) error {
	return fn(ctx, f)
}

type recordedOutcomes struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordedOutcomes) RecordProvision(_ context.Context, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func newTestApp(t *testing.T, store *fakeStore, opts ...Option) *Application {
	t.Helper()
	signer, err := hmac.NewHMACSigner([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	clk := &clock.Fixed{T: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewApp(store, store, pagination.New(signer, pagination.WithClock(clk)), opts...)
}

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewV4()
	if err != nil {
		t.Fatalf("uuid: %v", err)
	}
	return id
}

// ---------------------------------------------------------------------------
// access validation
// ---------------------------------------------------------------------------

func TestValidateAccess(t *testing.T) {
	store := newFakeStore()
	owner := mustUUID(t)
	other := mustUUID(t)
	publicID := mustUUID(t)

	store.add(Profile{ID: owner, Code: "FL000042", IsPublic: false})
	store.add(Profile{ID: publicID, Code: "FL000043", IsPublic: true})

	app := newTestApp(t, store)

	tests := []struct {
		name      string
		target    string
		caller    *uuid.UUID
		canAccess bool
		level     AccessLevel
		reason    DenyReason
	}{
		{"owner by code on private profile", "FL000042", &owner, true, AccessOwner, ""},
		{"owner by id on private profile", owner.String(), &owner, true, AccessOwner, ""},
		{"anonymous on private profile", "FL000042", nil, false, AccessNone, ReasonPrivateProfile},
		{"other user on private profile", "FL000042", &other, false, AccessNone, ReasonPrivateProfile},
		{"anonymous on public profile", "FL000043", nil, true, AccessPublic, ""},
		{"other user on public profile", publicID.String(), &other, true, AccessPrivate, ""},
		{"unknown code", "FL999999", nil, false, AccessNone, ReasonProfileNotFound},
		{"lowercase code is not a code", "fl000042", nil, false, AccessNone, ReasonProfileNotFound},
		{"garbage", "not-an-id", &owner, false, AccessNone, ReasonProfileNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := app.ValidateAccess(context.Background(), tt.target, tt.caller)
			if got.CanAccess != tt.canAccess || got.Level != tt.level || got.Reason != tt.reason {
				t.Fatalf("got %+v, want canAccess=%v level=%s reason=%s", got, tt.canAccess, tt.level, tt.reason)
			}
			if got.CanAccess && got.Profile == nil {
				t.Fatal("granted result must carry the profile")
			}
		})
	}
}

func TestValidateAccess_LookupErrorDenies(t *testing.T) {
	store := newFakeStore()
	store.readErr = errors.New("connection reset")
	app := newTestApp(t, store)

	got := app.ValidateAccess(context.Background(), "FL000001", nil)
	if got.CanAccess || got.Level != AccessNone || got.Reason != ReasonValidationError {
		t.Fatalf("got %+v, want NONE/VALIDATION_ERROR", got)
	}
}

func TestShape(t *testing.T) {
	phone, loc := "555-0100", "Lisbon"
	p := Profile{Phone: &phone, Location: &loc}

	if s := Shape(p, AccessOwner); s.Phone == nil || s.Location == nil {
		t.Error("owner should see phone and location")
	}
	if s := Shape(p, AccessPrivate); s.Phone != nil || s.Location == nil {
		t.Error("authenticated viewer should see location but not phone")
	}
	if s := Shape(p, AccessPublic); s.Phone != nil || s.Location != nil {
		t.Error("anonymous viewer should see neither phone nor location")
	}
	if p.Phone == nil {
		t.Error("Shape must not mutate its input")
	}
}

// ---------------------------------------------------------------------------
// provisioning
// ---------------------------------------------------------------------------

func TestEnsureProfileExists_IdempotentSingleInsert(t *testing.T) {
	store := newFakeStore()
	rec := &recordedOutcomes{}
	app := newTestApp(t, store, WithMetrics(rec))
	id := mustUUID(t)

	if !app.EnsureProfileExists(context.Background(), id, "ana@example.com") {
		t.Fatal("first call should succeed")
	}
	if !app.EnsureProfileExists(context.Background(), id, "ana@example.com") {
		t.Fatal("second call should succeed")
	}
	if store.inserts != 1 {
		t.Fatalf("inserts = %d, want 1", store.inserts)
	}

	p, _ := store.GetProfileByID(context.Background(), id)
	if p.Code != "FL000001" || p.DisplayName != "ana" || !p.IsPublic {
		t.Fatalf("unexpected profile %+v", p)
	}
	if !slices.Equal(rec.outcomes, []string{telemetry.OutcomeSuccess, telemetry.OutcomeExisting}) {
		t.Fatalf("outcomes = %v", rec.outcomes)
	}
}

func TestEnsureProfileExists_RetriesCodeCollision(t *testing.T) {
	store := newFakeStore()
	store.codeTaken["FL000001"] = true
	store.codeTaken["FL000002"] = true
	app := newTestApp(t, store)
	id := mustUUID(t)

	if !app.EnsureProfileExists(context.Background(), id, "") {
		t.Fatal("third attempt should succeed")
	}
	p, _ := store.GetProfileByID(context.Background(), id)
	if p.Code != "FL000003" || p.DisplayName != DefaultDisplayName {
		t.Fatalf("unexpected profile %+v", p)
	}
}

func TestEnsureProfileExists_GivesUpAfterRetries(t *testing.T) {
	store := newFakeStore()
	for _, c := range []string{"FL000001", "FL000002", "FL000003"} {
		store.codeTaken[c] = true
	}
	rec := &recordedOutcomes{}
	app := newTestApp(t, store, WithMetrics(rec))

	if app.EnsureProfileExists(context.Background(), mustUUID(t), "x@example.com") {
		t.Fatal("expected false after exhausting retries")
	}
	if store.seq != provisionAttempts {
		t.Fatalf("sequence draws = %d, want %d", store.seq, provisionAttempts)
	}
	if !slices.Equal(rec.outcomes, []string{telemetry.OutcomeFailure}) {
		t.Fatalf("outcomes = %v", rec.outcomes)
	}
}

func TestEnsureProfileExists_SequenceExhausted(t *testing.T) {
	store := newFakeStore()
	store.seqErr = ErrCodeExhausted
	rec := &recordedOutcomes{}
	app := newTestApp(t, store, WithMetrics(rec))

	if app.EnsureProfileExists(context.Background(), mustUUID(t), "a@b.c") {
		t.Fatal("expected false once codes run out")
	}
	if store.inserts != 0 {
		t.Fatal("no insert expected")
	}
	if !slices.Equal(rec.outcomes, []string{telemetry.OutcomeFailure}) {
		t.Fatalf("outcomes = %v, want a single failure without retries", rec.outcomes)
	}
}

func TestEnsureProfileExists_LookupErrorReturnsFalse(t *testing.T) {
	store := newFakeStore()
	store.readErr = errors.New("boom")
	app := newTestApp(t, store)

	if app.EnsureProfileExists(context.Background(), mustUUID(t), "a@b.c") {
		t.Fatal("expected false")
	}
	if store.inserts != 0 {
		t.Fatal("no insert expected")
	}
}

func TestFormatCode(t *testing.T) {
	if c, err := FormatCode(42); err != nil || c != "FL000042" {
		t.Fatalf("FormatCode(42) = %q, %v", c, err)
	}
	if _, err := FormatCode(1_000_000); !errors.Is(err, ErrCodeExhausted) {
		t.Fatalf("err = %v, want ErrCodeExhausted", err)
	}
	if !IsProfileCode("FL000042") || IsProfileCode("FL00042") {
		t.Fatal("code pattern mismatch")
	}
}

func TestDisplayNameFromEmail(t *testing.T) {
	for in, want := range map[string]string{
		"ana.maria@example.com": "ana.maria",
		"":                      DefaultDisplayName,
		"@example.com":          DefaultDisplayName,
		"no-at-sign":            DefaultDisplayName,
	} {
		if got := DisplayNameFromEmail(in); got != want {
			t.Errorf("DisplayNameFromEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

// ---------------------------------------------------------------------------
// modify
// ---------------------------------------------------------------------------

func TestModifyProfile(t *testing.T) {
	store := newFakeStore()
	id := mustUUID(t)
	bio := "old"
	store.add(Profile{ID: id, Code: "FL000001", DisplayName: "ana", Bio: &bio, IsPublic: true})
	app := newTestApp(t, store)

	params := ModifyProfileParams{
		DisplayName: nullable.NewNullableWithValue("  Ana  "),
		Bio:         nullable.NewNullNullable[string](),
		IsPublic:    nullable.NewNullableWithValue(false),
	}
	p, err := app.ModifyProfile(context.Background(), id, params)
	if err != nil {
		t.Fatalf("ModifyProfile: %v", err)
	}
	if p.DisplayName != "Ana" || p.Bio != nil || p.IsPublic {
		t.Fatalf("unexpected profile %+v", p)
	}
}

// bumpLog records generation bumps of the listing cache.
type bumpLog struct {
	mu   sync.Mutex
	keys []string
}

func (b *bumpLog) Get(context.Context, string) (int64, error) { return 0, nil }

func (b *bumpLog) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keys = append(b.keys, key)
	return int64(len(b.keys)), nil
}

func TestModifyProfile_RenameInvalidatesListings(t *testing.T) {
	store := newFakeStore()
	id := mustUUID(t)
	store.add(Profile{ID: id, Code: "FL000001", DisplayName: "ana", IsPublic: true})
	bumps := &bumpLog{}
	app := newTestApp(t, store, WithListingCache(cache.New(nil, bumps)))
	ctx := context.Background()

	if _, err := app.ModifyProfile(ctx, id, ModifyProfileParams{Bio: nullable.NewNullableWithValue("hi")}); err != nil {
		t.Fatalf("ModifyProfile: %v", err)
	}
	if len(bumps.keys) != 0 {
		t.Fatalf("bio change bumped %v", bumps.keys)
	}

	if _, err := app.ModifyProfile(ctx, id, ModifyProfileParams{DisplayName: nullable.NewNullableWithValue("Ana B")}); err != nil {
		t.Fatalf("ModifyProfile: %v", err)
	}
	want := []string{"gen:" + cache.UserScope(id.String()), "gen:" + cache.ScopeReviewAuthors}
	if !slices.Equal(bumps.keys, want) {
		t.Fatalf("bumped %v, want %v", bumps.keys, want)
	}
}

func TestModifyProfile_Validation(t *testing.T) {
	app := newTestApp(t, newFakeStore())
	id := mustUUID(t)

	tests := []struct {
		name   string
		params ModifyProfileParams
		msg    string
	}{
		{"empty", ModifyProfileParams{}, "No fields to update"},
		{"null name", ModifyProfileParams{DisplayName: nullable.NewNullNullable[string]()}, "Display name is required"},
		{"blank name", ModifyProfileParams{DisplayName: nullable.NewNullableWithValue(" ")}, "Display name is required"},
		{"null visibility", ModifyProfileParams{IsPublic: nullable.NewNullNullable[bool]()}, "Visibility must be true or false"},
		{"bad website", ModifyProfileParams{Website: nullable.NewNullableWithValue("ftp://x")}, "Website must be an http(s) URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.ModifyProfile(context.Background(), id, tt.params)
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Message != tt.msg {
				t.Fatalf("err = %v, want validation %q", err, tt.msg)
			}
			if !errors.Is(err, ErrInvalidData) {
				t.Fatal("validation errors must wrap ErrInvalidData")
			}
		})
	}
}

func TestModifyProfile_NotFound(t *testing.T) {
	app := newTestApp(t, newFakeStore())
	_, err := app.ModifyProfile(context.Background(), mustUUID(t), ModifyProfileParams{
		Bio: nullable.NewNullableWithValue("hi"),
	})
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("err = %v, want ErrProfileNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// search
// ---------------------------------------------------------------------------

func TestSearchProfiles_CursorWalk(t *testing.T) {
	store := newFakeStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 5 {
		store.add(Profile{
			ID:        mustUUID(t),
			Code:      "FL00000" + string(rune('1'+i)),
			IsPublic:  true,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	store.add(Profile{ID: mustUUID(t), Code: "FL000009", IsPublic: false, CreatedAt: base})
	app := newTestApp(t, store)

	seen := map[uuid.UUID]bool{}
	req := pagination.NewCursorRequest("", 2)
	for pages := 0; ; pages++ {
		if pages > 5 {
			t.Fatal("cursor walk did not terminate")
		}
		env, err := app.SearchProfiles(context.Background(), "", req)
		if err != nil {
			t.Fatalf("SearchProfiles: %v", err)
		}
		if env.Total != 5 {
			t.Fatalf("total = %d, want 5", env.Total)
		}
		for _, p := range env.Data {
			if seen[p.ID] {
				t.Fatalf("profile %s returned twice", p.ID)
			}
			seen[p.ID] = true
		}
		if env.NextCursor == nil {
			break
		}
		req = pagination.NewCursorRequest(*env.NextCursor, 2)
	}
	if len(seen) != 5 {
		t.Fatalf("saw %d profiles, want 5", len(seen))
	}
}

func TestSearchProfiles_QueryTooLong(t *testing.T) {
	app := newTestApp(t, newFakeStore())
	long := make([]byte, maxSearchLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err := app.SearchProfiles(context.Background(), string(long), pagination.NewOffsetRequest(1, 10))
	if !errors.Is(err, ErrInvalidData) {
		t.Fatalf("err = %v, want ErrInvalidData", err)
	}
}

func TestSearchProfiles_BadCursor(t *testing.T) {
	app := newTestApp(t, newFakeStore())
	_, err := app.SearchProfiles(context.Background(), "", pagination.NewCursorRequest("bogus", 10))
	if !errors.Is(err, pagination.ErrInvalidCursor) {
		t.Fatalf("err = %v, want ErrInvalidCursor", err)
	}
}
