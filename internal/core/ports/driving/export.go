package driving

import (
	"context"
	"io"
)

// ExportService writes the extracted data of a case to a file format.
type ExportService interface {
	// Export writes caseID, or every case when empty, to w.
	Export(ctx context.Context, w io.Writer, caseID string) error
}
