package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"fanclub/pkg/apperr"
	"fanclub/pkg/cursor"
	"fanclub/pkg/domain"
	"fanclub/pkg/entitlement"
	"fanclub/pkg/logger"
	"fanclub/pkg/queue"
	"fanclub/services/creator/internal/entity"
	"fanclub/services/creator/internal/repo/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type postingFixture struct {
	uc        PostingUseCase
	postings  *MockPostingRepository
	members   *MockMembershipRepository
	publisher *fakePublisher
	storage   *fakeStorage
	redis     *miniredis.Miniredis
}

func newPostingFixture(t *testing.T) *postingFixture {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := &postingFixture{
		postings:  new(MockPostingRepository),
		members:   new(MockMembershipRepository),
		publisher: &fakePublisher{},
		storage:   &fakeStorage{},
		redis:     mr,
	}
	f.uc = NewPostingUseCase(f.postings, f.members, f.storage, "fanclub-content", f.publisher,
		cache.NewEntitlementCache(client), logger.NewTest(t))
	return f
}

var base = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func samplePostings() []domain.ContentItem {
	return []domain.ContentItem{
		{ID: "p3", AuthorID: "c1", Title: "Public", Gate: domain.Public(), Body: domain.Body{Text: "hello"}, CreatedAt: base.Add(3 * time.Minute)},
		{ID: "p2", AuthorID: "c1", Title: "Fans", Gate: domain.Membership(2), Body: domain.Body{Text: "secret", ImageURLs: []string{"a", "b"}}, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "p1", AuthorID: "c1", Title: "Extra", Gate: domain.Purchase(300), Body: domain.Body{Text: "paid"}, CreatedAt: base.Add(time.Minute)},
	}
}

func TestListPostings_AnonymousSeesLockedTeasers(t *testing.T) {
	f := newPostingFixture(t)
	f.postings.On("List", entity.PostingQuery{Filter: entity.FilterAll, Limit: 2}).Return(samplePostings(), nil)
	f.postings.On("LikedAmong", "", []string{"p3", "p2"}).Return(map[string]bool{}, nil)

	page, err := f.uc.ListPostings(context.Background(), "", "", "", "", 2)
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)
	require.NotNil(t, page.NextCursor)
	pos, err := cursor.Decode(*page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, "p2", pos.ID)
	assert.True(t, base.Add(2*time.Minute).Equal(pos.CreatedAt))

	assert.NotNil(t, page.Items[0].Body)
	locked := page.Items[1]
	assert.Nil(t, locked.Body)
	assert.Equal(t, entitlement.ReasonMembershipInsufficient, locked.Access.Reason)
	assert.Equal(t, 2, locked.Access.Hints.ImageCount)
	assert.Equal(t, 6, locked.Access.Hints.TextLength)
}

func TestListPostings_LastPage(t *testing.T) {
	f := newPostingFixture(t)
	after := cursor.Encode(cursor.Position{CreatedAt: base.Add(4 * time.Minute), ID: "p4"})
	f.postings.On("List", mock.MatchedBy(func(q entity.PostingQuery) bool {
		return q.After != nil && q.After.ID == "p4" && q.CreatorID == "c1" && q.Filter == entity.FilterMembership
	})).Return(samplePostings()[1:2], nil)
	f.members.On("SubscriptionsOf", "v1").Return([]domain.TierRef{{TierID: "t2", CreatorID: "c1", Level: 2}}, nil)
	f.members.On("PurchasesOf", "v1").Return([]string{}, nil)
	f.postings.On("LikedAmong", "v1", []string{"p2"}).Return(map[string]bool{"p2": true}, nil)

	page, err := f.uc.ListPostings(context.Background(), "v1", "c1", entity.FilterMembership, after, 20)
	require.NoError(t, err)

	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextCursor)
	require.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].Access.CanView)
	assert.Equal(t, entitlement.ReasonMembershipSufficient, page.Items[0].Access.Reason)
	assert.True(t, page.Items[0].IsLiked)
}

func TestListPostings_RejectsBadInput(t *testing.T) {
	f := newPostingFixture(t)

	_, err := f.uc.ListPostings(context.Background(), "", "", "popular", "", 20)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = f.uc.ListPostings(context.Background(), "", "", "", "not a cursor", 20)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	f.postings.AssertNotCalled(t, "List", mock.Anything)
}

func TestEntitlementSnapshotIsCached(t *testing.T) {
	f := newPostingFixture(t)
	item := samplePostings()[1]
	f.postings.On("GetByID", "p2").Return(&item, nil)
	f.postings.On("LikedAmong", "v1", []string{"p2"}).Return(map[string]bool{}, nil)
	f.members.On("SubscriptionsOf", "v1").Return([]domain.TierRef{{TierID: "t3", CreatorID: "c1", Level: 3}}, nil).Once()
	f.members.On("PurchasesOf", "v1").Return([]string{}, nil).Once()

	for i := 0; i < 2; i++ {
		view, err := f.uc.GetPosting(context.Background(), "v1", "p2")
		require.NoError(t, err)
		assert.True(t, view.Access.CanView)
	}
	f.members.AssertNumberOfCalls(t, "SubscriptionsOf", 1)
	assert.True(t, f.redis.Exists("entitlement:v1"))
}

func TestCreatePosting_RequiresExistingLevel(t *testing.T) {
	f := newPostingFixture(t)
	level := 4
	f.members.On("LevelExists", "c1", 4).Return(false, nil)

	_, err := f.uc.CreatePosting(context.Background(), "c1", entity.NewPosting{Title: "Gated", MinLevel: &level})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	f.postings.AssertNotCalled(t, "Create", mock.Anything)
}

func TestCreatePosting_RejectsNonPositivePrice(t *testing.T) {
	f := newPostingFixture(t)
	zero := 0
	_, err := f.uc.CreatePosting(context.Background(), "c1", entity.NewPosting{Title: "Free?", Price: &zero})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestCreatePosting_UploadsAndNotifiesAudience(t *testing.T) {
	f := newPostingFixture(t)
	level, price := 2, 500
	f.members.On("LevelExists", "c1", 2).Return(true, nil)
	f.members.On("AudienceOf", "c1").Return([]string{"v1", "v2"}, nil)
	f.postings.On("Create", mock.MatchedBy(func(item *domain.ContentItem) bool {
		return item.Gate.MinLevel() == 2 && item.Gate.Price() == 500 && len(item.Body.ImageURLs) == 1
	})).Return(nil)

	view, err := f.uc.CreatePosting(context.Background(), "c1", entity.NewPosting{
		Title:    " Behind the scenes ",
		Text:     "long read",
		MinLevel: &level,
		Price:    &price,
		Images:   []entity.MediaFile{{Filename: "shot.PNG", Body: strings.NewReader("png")}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Behind the scenes", view.Title)
	assert.Equal(t, entitlement.ReasonOwner, view.Access.Reason)
	assert.Equal(t, domain.TierIndividualPurchase, view.Tier)
	require.Len(t, f.storage.uploaded, 1)
	assert.True(t, strings.HasPrefix(f.storage.uploaded[0], "postings/c1/"))
	assert.True(t, strings.HasSuffix(f.storage.uploaded[0], ".png"))

	events := f.publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, queue.EventNewPost, events[0].Type)
	assert.Equal(t, []string{"v1", "v2"}, events[0].Recipients)
}

func TestDeletePosting_OwnerOnly(t *testing.T) {
	f := newPostingFixture(t)
	item := domain.ContentItem{ID: "p1", AuthorID: "c1", Body: domain.Body{ImageURLs: []string{"http://minio:9000/fanclub-content/postings/c1/x.png"}}}
	f.postings.On("GetByID", "p1").Return(&item, nil)
	f.postings.On("Delete", "p1").Return(nil)

	err := f.uc.DeletePosting(context.Background(), "intruder", "p1")
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	require.NoError(t, f.uc.DeletePosting(context.Background(), "c1", "p1"))
	assert.Equal(t, []string{"postings/c1/x.png"}, f.storage.deleted)
}

func TestLike_LockedPostingIsForbidden(t *testing.T) {
	f := newPostingFixture(t)
	item := samplePostings()[1]
	f.postings.On("GetByID", "p2").Return(&item, nil)
	f.members.On("SubscriptionsOf", "v1").Return([]domain.TierRef{}, nil)
	f.members.On("PurchasesOf", "v1").Return([]string{}, nil)

	_, err := f.uc.Like(context.Background(), "v1", "p2")
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
	f.postings.AssertNotCalled(t, "AddLike", mock.Anything, mock.Anything)
}

func TestLike_NotifiesAuthor(t *testing.T) {
	f := newPostingFixture(t)
	item := samplePostings()[0]
	f.postings.On("GetByID", "p3").Return(&item, nil)
	f.members.On("SubscriptionsOf", "v1").Return([]domain.TierRef{}, nil)
	f.members.On("PurchasesOf", "v1").Return([]string{}, nil)
	f.postings.On("AddLike", "v1", "p3").Return(int64(8), nil)

	state, err := f.uc.Like(context.Background(), "v1", "p3")
	require.NoError(t, err)
	assert.Equal(t, entity.LikeState{PostingID: "p3", Liked: true, LikeCount: 8}, state)

	events := f.publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, queue.EventNewLike, events[0].Type)
	assert.Equal(t, []string{"c1"}, events[0].Recipients)
}

func TestRecordView_CountsOncePerWindow(t *testing.T) {
	f := newPostingFixture(t)
	f.postings.On("IncrementViews", "p1").Return(nil).Once()

	require.NoError(t, f.uc.RecordView(context.Background(), "v1", "p1"))
	require.NoError(t, f.uc.RecordView(context.Background(), "v1", "p1"))
	f.postings.AssertNumberOfCalls(t, "IncrementViews", 1)
}

func TestPurchase(t *testing.T) {
	f := newPostingFixture(t)
	paid := samplePostings()[2]
	gated := samplePostings()[1]
	f.postings.On("GetByID", "p1").Return(&paid, nil)
	f.postings.On("GetByID", "p2").Return(&gated, nil)

	_, err := f.uc.Purchase(context.Background(), "v1", "p2")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	// stale snapshot from before the purchase
	f.redis.Set("entitlement:v1", `{"viewer_id":"v1","tiers":[],"purchases":[]}`)
	f.postings.On("CreatePurchase", "v1", "p1", 300).Return(nil)
	f.members.On("SubscriptionsOf", "v1").Return([]domain.TierRef{}, nil)
	f.members.On("PurchasesOf", "v1").Return([]string{"p1"}, nil)
	f.postings.On("LikedAmong", "v1", []string{"p1"}).Return(map[string]bool{}, nil)

	view, err := f.uc.Purchase(context.Background(), "v1", "p1")
	require.NoError(t, err)
	assert.True(t, view.Access.CanView)
	assert.Equal(t, entitlement.ReasonPurchased, view.Access.Reason)
	require.NotNil(t, view.Body)
	assert.Equal(t, "paid", view.Body.Text)
}

func TestPurchase_Twice(t *testing.T) {
	f := newPostingFixture(t)
	paid := samplePostings()[2]
	f.postings.On("GetByID", "p1").Return(&paid, nil)
	f.postings.On("CreatePurchase", "v1", "p1", 300).Return(apperr.Conflict("purchase already exists"))

	_, err := f.uc.Purchase(context.Background(), "v1", "p1")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}
