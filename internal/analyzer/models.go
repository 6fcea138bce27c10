package analyzer

import (
	"github.com/anime-shed/doc-inspector-go/pkg/models"
)

// AnalysisRecord is an alias to the shared models.AnalysisRecord so callers
// of this package need not import pkg/models.
type AnalysisRecord = models.AnalysisRecord
