package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/preschool-ops-api/internal/dto"
	"github.com/noah-isme/preschool-ops-api/internal/models"
	appErrors "github.com/noah-isme/preschool-ops-api/pkg/errors"
)

const (
	sunriseID = "6f1c2d4e-0000-4000-8000-000000000001"
	maplesID  = "6f1c2d4e-0000-4000-8000-000000000002"
	leadOneID = "0a8b8e3c-1111-4111-8111-000000000001"
	branchID  = "0a8b8e3c-2222-4222-8222-000000000001"
)

// leadStoreStub keeps leads per school and mimics the conditional updates.
type leadStoreStub struct {
	leads     map[string]*models.Lead
	listCalls int
	listErr   error
	updateErr error
	lastPatch models.LeadUpdate
}

func newLeadStoreStub(leads ...models.Lead) *leadStoreStub {
	stub := &leadStoreStub{leads: map[string]*models.Lead{}}
	for i := range leads {
		l := leads[i]
		stub.leads[l.ID] = &l
	}
	return stub
}

func (s *leadStoreStub) ListBySchool(ctx context.Context, schoolID string) ([]models.Lead, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.Lead
	for _, l := range s.leads {
		if l.SchoolID == schoolID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (s *leadStoreStub) Create(ctx context.Context, lead *models.Lead) error {
	lead.ID = "new-lead"
	s.leads[lead.ID] = lead
	return nil
}

func (s *leadStoreStub) UpdateStatus(ctx context.Context, schoolID, id string, status models.LeadStatus) (int64, error) {
	if s.updateErr != nil {
		return 0, s.updateErr
	}
	lead, ok := s.leads[id]
	if !ok || lead.SchoolID != schoolID {
		return 0, nil
	}
	lead.Status = status
	return 1, nil
}

func (s *leadStoreStub) Update(ctx context.Context, schoolID, id string, patch models.LeadUpdate) (int64, error) {
	s.lastPatch = patch
	if s.updateErr != nil {
		return 0, s.updateErr
	}
	lead, ok := s.leads[id]
	if !ok || lead.SchoolID != schoolID {
		return 0, nil
	}
	if patch.Score != nil {
		lead.Score = patch.Score
	}
	if patch.Status != nil {
		lead.Status = *patch.Status
	}
	return 1, nil
}

type branchLookupStub map[string]models.Branch

func (s branchLookupStub) FindByID(ctx context.Context, schoolID, id string) (*models.Branch, error) {
	b, ok := s[id]
	if !ok || b.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	return &b, nil
}

type memoryCacheRepo struct {
	data    map[string][]byte
	deletes int
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{data: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memoryCacheRepo) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	m.deletes++
	return nil
}

func sunriseScope() *models.TenantScope {
	return &models.TenantScope{SchoolID: sunriseID, Slug: "sunrise", Name: "Sunrise"}
}

func newLeadServiceFor(store *leadStoreStub, cache *CacheService) *LeadService {
	branches := branchLookupStub{
		branchID: {ID: branchID, SchoolID: sunriseID, Name: "North"},
	}
	return NewLeadService(store, branches, cache, nil, nil, zap.NewNop())
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestListLeadsDefaultsScore(t *testing.T) {
	store := newLeadStoreStub(
		models.Lead{ID: leadOneID, SchoolID: sunriseID, ParentName: "Ana", ChildName: "Leo", Status: models.LeadStatusNew},
		models.Lead{ID: "scored", SchoolID: sunriseID, Status: models.LeadStatusContacted, Score: intPtr(80)},
		models.Lead{ID: "other", SchoolID: maplesID, Status: models.LeadStatusNew},
	)
	svc := newLeadServiceFor(store, nil)

	items, err := svc.ListLeads(context.Background(), sunriseScope())
	require.NoError(t, err)
	require.Len(t, items, 2)

	scores := map[string]int{}
	for _, item := range items {
		scores[item.ID] = item.Score
	}
	assert.Equal(t, 50, scores[leadOneID])
	assert.Equal(t, 80, scores["scored"])
}

func TestListLeadsServedFromCache(t *testing.T) {
	store := newLeadStoreStub(models.Lead{ID: leadOneID, SchoolID: sunriseID, Status: models.LeadStatusNew})
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	svc := newLeadServiceFor(store, cache)

	_, err := svc.ListLeads(context.Background(), sunriseScope())
	require.NoError(t, err)
	items, err := svc.ListLeads(context.Background(), sunriseScope())
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, store.listCalls)
	assert.Contains(t, repo.data, "leads:"+sunriseID)

	require.NoError(t, svc.UpdateLeadStatus(context.Background(), sunriseScope(), leadOneID, "ENROLLED"))
	assert.NotContains(t, repo.data, "leads:"+sunriseID)

	items, err = svc.ListLeads(context.Background(), sunriseScope())
	require.NoError(t, err)
	assert.Equal(t, "ENROLLED", items[0].Status)
	assert.Equal(t, 2, store.listCalls)
}

func TestListLeadsStoreFailure(t *testing.T) {
	store := newLeadStoreStub()
	store.listErr = errors.New("boom")

	_, err := newLeadServiceFor(store, nil).ListLeads(context.Background(), sunriseScope())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestUpdateLeadStatusAllowsEveryTransition(t *testing.T) {
	for _, from := range models.LeadStages {
		for _, to := range models.LeadStages {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				store := newLeadStoreStub(models.Lead{ID: leadOneID, SchoolID: sunriseID, Status: from})
				svc := newLeadServiceFor(store, nil)

				err := svc.UpdateLeadStatus(context.Background(), sunriseScope(), leadOneID, string(to))
				require.NoError(t, err)
				assert.Equal(t, to, store.leads[leadOneID].Status)
			})
		}
	}
}

func TestUpdateLeadStatusRejectsOtherTenantAsNotFound(t *testing.T) {
	store := newLeadStoreStub(models.Lead{ID: leadOneID, SchoolID: maplesID, Status: models.LeadStatusNew})
	svc := newLeadServiceFor(store, nil)

	err := svc.UpdateLeadStatus(context.Background(), sunriseScope(), leadOneID, "CONTACTED")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	assert.Equal(t, models.LeadStatusNew, store.leads[leadOneID].Status)
}

func TestUpdateLeadStatusErrors(t *testing.T) {
	store := newLeadStoreStub(models.Lead{ID: leadOneID, SchoolID: sunriseID, Status: models.LeadStatusNew})
	svc := newLeadServiceFor(store, nil)
	ctx := context.Background()

	err := svc.UpdateLeadStatus(ctx, sunriseScope(), leadOneID, "ARCHIVED")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	err = svc.UpdateLeadStatus(ctx, sunriseScope(), "not-a-uuid", "NEW")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	err = svc.UpdateLeadStatus(ctx, sunriseScope(), "0a8b8e3c-1111-4111-8111-0000000000ff", "NEW")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	store.updateErr = errors.New("connection reset")
	err = svc.UpdateLeadStatus(ctx, sunriseScope(), leadOneID, "NEW")
	assert.True(t, appErrors.Is(err, appErrors.ErrInternal))
}

func TestUpdateLeadStatusNormalisesCase(t *testing.T) {
	store := newLeadStoreStub(models.Lead{ID: leadOneID, SchoolID: sunriseID, Status: models.LeadStatusNew})
	svc := newLeadServiceFor(store, nil)

	require.NoError(t, svc.UpdateLeadStatus(context.Background(), sunriseScope(), leadOneID, " tour_scheduled "))
	assert.Equal(t, models.LeadStatusTourScheduled, store.leads[leadOneID].Status)
}

func TestBoardGroupsByStage(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	store := newLeadStoreStub(
		models.Lead{ID: "a", SchoolID: sunriseID, Status: models.LeadStatusNew},
		models.Lead{ID: "b", SchoolID: sunriseID, Status: models.LeadStatusNew},
		models.Lead{ID: "c", SchoolID: sunriseID, Status: models.LeadStatusEnrolled},
		models.Lead{ID: "d", SchoolID: sunriseID, Status: "WAITLISTED"},
	)
	svc := NewLeadService(store, branchLookupStub{}, nil, nil, nil, zap.New(core))

	board, err := svc.Board(context.Background(), sunriseScope())
	require.NoError(t, err)

	require.Len(t, board.Columns, 6)
	for i, stage := range models.LeadStages {
		assert.Equal(t, string(stage), board.Columns[i].Status)
	}
	assert.Equal(t, 2, board.Columns[0].Count)
	assert.Equal(t, 0, board.Columns[1].Count)
	assert.NotNil(t, board.Columns[1].Leads)
	assert.Equal(t, 1, board.Columns[4].Count)
	assert.Equal(t, "UNKNOWN", board.Columns[5].Status)
	assert.Equal(t, "d", board.Columns[5].Leads[0].ID)
	assert.Equal(t, 4, board.Total)
	assert.Equal(t, 1, logs.FilterMessage("leads with unrecognised status").Len())
}

func TestBoardOmitsUnknownColumnWhenClean(t *testing.T) {
	store := newLeadStoreStub(models.Lead{ID: "a", SchoolID: sunriseID, Status: models.LeadStatusInterested})

	board, err := newLeadServiceFor(store, nil).Board(context.Background(), sunriseScope())
	require.NoError(t, err)
	assert.Len(t, board.Columns, 5)
	assert.Equal(t, 1, board.Columns[2].Count)
}

func TestCreateLeadStartsAsNew(t *testing.T) {
	store := newLeadStoreStub()
	svc := newLeadServiceFor(store, nil)

	item, err := svc.CreateLead(context.Background(), sunriseScope(), dto.CreateLeadRequest{
		ParentName:        "Maya Chen",
		ChildName:         "Oli",
		Source:            "website",
		PreferredBranchID: strPtr(branchID),
	})
	require.NoError(t, err)
	assert.Equal(t, "NEW", item.Status)
	assert.Equal(t, 50, item.Score)
	assert.Nil(t, store.leads["new-lead"].Score)
	assert.Equal(t, sunriseID, store.leads["new-lead"].SchoolID)
}

func TestCreateLeadValidation(t *testing.T) {
	svc := newLeadServiceFor(newLeadStoreStub(), nil)

	_, err := svc.CreateLead(context.Background(), sunriseScope(), dto.CreateLeadRequest{ParentName: "Maya"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestUpdateLeadAppliesPatch(t *testing.T) {
	store := newLeadStoreStub(models.Lead{ID: leadOneID, SchoolID: sunriseID, Status: models.LeadStatusNew})
	svc := newLeadServiceFor(store, nil)

	err := svc.UpdateLead(context.Background(), sunriseScope(), leadOneID, dto.UpdateLeadRequest{
		Score:  intPtr(90),
		Status: strPtr("INTERESTED"),
	})
	require.NoError(t, err)
	assert.Equal(t, 90, *store.leads[leadOneID].Score)
	assert.Equal(t, models.LeadStatusInterested, store.leads[leadOneID].Status)
}

func TestUpdateLeadRejectsInvalidInput(t *testing.T) {
	store := newLeadStoreStub(models.Lead{ID: leadOneID, SchoolID: sunriseID, Status: models.LeadStatusNew})
	svc := newLeadServiceFor(store, nil)
	ctx := context.Background()

	err := svc.UpdateLead(ctx, sunriseScope(), leadOneID, dto.UpdateLeadRequest{Score: intPtr(101)})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	err = svc.UpdateLead(ctx, sunriseScope(), leadOneID, dto.UpdateLeadRequest{Status: strPtr("LOST")})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	err = svc.UpdateLead(ctx, sunriseScope(), leadOneID, dto.UpdateLeadRequest{})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestUpdateLeadRejectsForeignBranch(t *testing.T) {
	store := newLeadStoreStub(models.Lead{ID: leadOneID, SchoolID: sunriseID, Status: models.LeadStatusNew})
	branches := branchLookupStub{
		"0a8b8e3c-2222-4222-8222-000000000009": {ID: "0a8b8e3c-2222-4222-8222-000000000009", SchoolID: maplesID},
	}
	svc := NewLeadService(store, branches, nil, nil, nil, nil)

	err := svc.UpdateLead(context.Background(), sunriseScope(), leadOneID, dto.UpdateLeadRequest{
		PreferredBranchID: strPtr("0a8b8e3c-2222-4222-8222-000000000009"),
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	assert.Nil(t, store.lastPatch.PreferredBranchID)
}

func TestUpdateLeadClearsPreferredBranch(t *testing.T) {
	store := newLeadStoreStub(models.Lead{ID: leadOneID, SchoolID: sunriseID, Status: models.LeadStatusNew, PreferredBranchID: strPtr(branchID)})
	svc := newLeadServiceFor(store, nil)

	err := svc.UpdateLead(context.Background(), sunriseScope(), leadOneID, dto.UpdateLeadRequest{PreferredBranchID: strPtr("")})
	require.NoError(t, err)
	require.NotNil(t, store.lastPatch.PreferredBranchID)
	assert.Equal(t, "", *store.lastPatch.PreferredBranchID)
}
