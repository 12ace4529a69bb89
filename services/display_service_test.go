package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waitline/models"
)

func setupTestDisplayService(repo *fakeQueueRepo, staffCount int, avg float64) (*DisplayService, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	svc, _ := newTestQueueService(repo, staffCount, avg)
	return NewDisplayService(db, svc, 5*time.Second), mock
}

func TestDisplayService_GetBoard_CacheHit(t *testing.T) {
	repo := newFakeQueueRepo()
	svc, mock := setupTestDisplayService(repo, 1, 25)

	cached := Board{
		LocationID:     "location-1",
		QueueID:        "queue-1",
		AvailableStaff: 2,
		GeneratedAt:    time.Now(),
		Entries: []BoardEntry{
			{Token: "A001", Name: "Jane D.", Position: 1, Status: "waiting", EstimatedMinutes: 0, Display: "0 min"},
		},
	}
	data, err := json.Marshal(cached)
	require.NoError(t, err)

	mock.ExpectGet("board:location-1").SetVal(string(data))

	board, err := svc.GetBoard(context.Background(), "location-1")
	require.NoError(t, err)
	assert.Equal(t, "queue-1", board.QueueID)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "A001", board.Entries[0].Token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDisplayService_GetBoard_CacheMissBuildsAndStores(t *testing.T) {
	q := models.NewQueue("queue-1", "location-1", 50, 15)
	for _, name := range []string{"Jane Doe", "John Smith", "Maria Garcia"} {
		_, err := q.AddCustomer("", name, "", "")
		require.NoError(t, err)
	}
	q.CollectEvents()
	repo := newFakeQueueRepo(q)
	svc, mock := setupTestDisplayService(repo, 1, 25)

	mock.ExpectGet("board:location-1").RedisNil()
	mock.Regexp().ExpectSet("board:location-1", `.*"queue_id":"queue-1".*`, 5*time.Second).SetVal("OK")

	board, err := svc.GetBoard(context.Background(), "location-1")
	require.NoError(t, err)

	assert.Equal(t, "location-1", board.LocationID)
	assert.Equal(t, 1, board.AvailableStaff)
	require.Len(t, board.Entries, 3)

	// The board uses the same estimator as the single-entry endpoint.
	assert.Equal(t, 0, board.Entries[0].EstimatedMinutes)
	assert.Equal(t, 25, board.Entries[1].EstimatedMinutes)
	assert.Equal(t, 50, board.Entries[2].EstimatedMinutes)
	assert.Equal(t, "50 min", board.Entries[2].Display)

	// Names are masked for the public display.
	assert.Equal(t, "Jane D.", board.Entries[0].Name)
	assert.Equal(t, "John S.", board.Entries[1].Name)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDisplayService_GetBoard_CorruptCacheRebuilds(t *testing.T) {
	q := models.NewQueue("queue-1", "location-1", 50, 15)
	_, err := q.AddCustomer("", "Jane Doe", "", "")
	require.NoError(t, err)
	q.CollectEvents()
	repo := newFakeQueueRepo(q)
	svc, mock := setupTestDisplayService(repo, 1, 25)

	mock.ExpectGet("board:location-1").SetVal("{not json")
	mock.Regexp().ExpectSet("board:location-1", `.*`, 5*time.Second).SetVal("OK")

	board, err := svc.GetBoard(context.Background(), "location-1")
	require.NoError(t, err)
	require.Len(t, board.Entries, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDisplayService_GetBoard_NoStaffShowsNA(t *testing.T) {
	q := models.NewQueue("queue-1", "location-1", 50, 15)
	_, err := q.AddCustomer("", "Jane Doe", "", "")
	require.NoError(t, err)
	q.CollectEvents()
	repo := newFakeQueueRepo(q)
	svc, mock := setupTestDisplayService(repo, 0, 25)

	mock.ExpectGet("board:location-1").RedisNil()
	mock.Regexp().ExpectSet("board:location-1", `.*`, 5*time.Second).SetVal("OK")

	board, err := svc.GetBoard(context.Background(), "location-1")
	require.NoError(t, err)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, WaitUnknown, board.Entries[0].EstimatedMinutes)
	assert.Equal(t, "N/A", board.Entries[0].Display)
}

func TestDisplayService_InvalidateBoard(t *testing.T) {
	repo := newFakeQueueRepo()
	svc, mock := setupTestDisplayService(repo, 1, 25)

	mock.ExpectDel("board:location-1").SetVal(1)

	svc.InvalidateBoard(context.Background(), "location-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaskName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Jane Doe", "Jane D."},
		{"John Smith", "John S."},
		{"Maria de la Cruz", "Maria C."},
		{"Cher", "Cher"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, maskName(tt.name))
		})
	}
}
