package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportdesk/ticketd/internal/domain"
)

func TestAttachmentCreateScansGeneratedFields(t *testing.T) {
	mock := newMockPool(t)
	repo := NewAttachmentRepository(mock)

	uploadedAt := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attachments")).
		WithArgs("t-1", "u-1", "report.pdf", "a1b2c3.pdf", "application/pdf", int64(2048)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "uploaded_at"}).AddRow("a-1", uploadedAt))

	attachment := &domain.Attachment{
		TicketID:         "t-1",
		UploadedByID:     "u-1",
		OriginalFilename: "report.pdf",
		StoredFilename:   "a1b2c3.pdf",
		MimeType:         "application/pdf",
		SizeBytes:        2048,
	}
	require.NoError(t, repo.Create(context.Background(), attachment))
	assert.Equal(t, "a-1", attachment.ID)
	assert.Equal(t, uploadedAt, attachment.UploadedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachmentSoftDelete(t *testing.T) {
	mock := newMockPool(t)
	repo := NewAttachmentRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE attachments")).
		WithArgs("u-9", "a-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.SoftDelete(context.Background(), "a-1", "u-9"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachmentSoftDeleteAlreadyDeleted(t *testing.T) {
	mock := newMockPool(t)
	repo := NewAttachmentRepository(mock)

	// The guard clause skips rows already flagged, so a second delete of the
	// same attachment affects nothing.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE attachments")).
		WithArgs("u-9", "a-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.SoftDelete(context.Background(), "a-1", "u-9")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}
