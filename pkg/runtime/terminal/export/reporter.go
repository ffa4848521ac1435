package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/de-tools/vm-cost-atlas/pkg/adapters"
	"github.com/de-tools/vm-cost-atlas/pkg/models/domain"
)

// Reporter serializes subscription reports into the JSON artifact consumed
// by the static report.
type Reporter struct {
	writer io.Writer
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{writer: writer}
}

func (r *Reporter) Export(reports []domain.SubscriptionReport) error {
	artifact := adapters.MapReportsToArtifact(reports)

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(artifact)
}
