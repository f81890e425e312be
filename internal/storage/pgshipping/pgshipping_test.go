package pgshipping

import (
	"context"
	"testing"
	"time"

	"github.com/BearBump/TrackRelay/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPGShipping_RepoFlow(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "trackrelay_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/trackrelay_test?sslmode=disable"
	st, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(st.Close)

	// Requests are immutable: a duplicate save keeps the first body.
	reqID, err := st.SaveRequest(ctx, "DOC-1", models.RequestTypePKGINF, "<PKGINF>first</PKGINF>")
	require.NoError(t, err)
	require.NotZero(t, reqID)

	dupID, err := st.SaveRequest(ctx, "DOC-1", models.RequestTypePKGINF, "<PKGINF>second</PKGINF>")
	require.NoError(t, err)
	require.Equal(t, reqID, dupID)

	got, err := st.GetRequest(ctx, "DOC-1", models.RequestTypePKGINF)
	require.NoError(t, err)
	require.Equal(t, "<PKGINF>first</PKGINF>", got.RequestBody)

	_, err = st.GetRequest(ctx, "MISSING", models.RequestTypePKGINF)
	require.ErrorIs(t, err, ErrNotFound)

	// Enqueue two shipments; re-enqueueing is a no-op.
	req2ID, err := st.SaveRequest(ctx, "DOC-2", models.RequestTypePKGINF, "<PKGINF/>")
	require.NoError(t, err)

	err = st.EnqueueShipments(ctx, []models.ShipmentCreateInput{
		{DocumentNumber: "DOC-1", MessageNumber: "PKGINF_1-1", RequestID: reqID},
		{DocumentNumber: "DOC-2", MessageNumber: "PKGINF_2-1", RequestID: req2ID},
	})
	require.NoError(t, err)
	err = st.EnqueueShipments(ctx, []models.ShipmentCreateInput{
		{DocumentNumber: "DOC-1", MessageNumber: "PKGINF_1-1", RequestID: reqID},
	})
	require.NoError(t, err)

	pending, err := st.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, "DOC-1", pending[0].DocumentNumber)
	require.Equal(t, "DOC-1", pending[0].RequestDocumentNumber)
	require.Equal(t, "DOC-2", pending[1].DocumentNumber)

	// History: duplicate (document, code) pairs are silently dropped.
	codes, err := st.HistoryCodes(ctx, "DOC-1")
	require.NoError(t, err)
	require.Empty(t, codes)

	has, err := st.HasLifecycleCode(ctx, "DOC-1")
	require.NoError(t, err)
	require.False(t, has)

	err = st.AppendHistory(ctx, []models.HistoryRecord{
		{DocumentNumber: "DOC-1", Code: models.StatusPickedUp, Status: "Picked up", MessageNumber: "TRKINF_X-1", RequestID: reqID},
		{DocumentNumber: "DOC-1", Code: models.StatusPickedUp, Status: "Picked up again", MessageNumber: "TRKINF_X-2", RequestID: reqID},
		{DocumentNumber: "DOC-1", Code: models.StatusDeparted, Status: "Departed", MessageNumber: "TRKINF_X-2", RequestID: reqID},
	})
	require.NoError(t, err)

	codes, err = st.HistoryCodes(ctx, "DOC-1")
	require.NoError(t, err)
	require.Equal(t, []string{models.StatusPickedUp, models.StatusDeparted}, codes)

	has, err = st.HasLifecycleCode(ctx, "DOC-1")
	require.NoError(t, err)
	require.True(t, has)

	// Delivered history removes the shipment from the queue.
	err = st.AppendHistory(ctx, []models.HistoryRecord{
		{DocumentNumber: "DOC-2", Code: models.StatusDelivered, Status: "Delivered", MessageNumber: "TRKINF_Y-1", RequestID: req2ID},
	})
	require.NoError(t, err)

	purged, err := st.PurgeDelivered(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), purged)

	pending, err = st.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "DOC-1", pending[0].DocumentNumber)
}
