// Package load defines the Domain construction input shapes (spec.md
// §6) as an interface, plus a concrete CSV-backed implementation.
package load

import (
	"github.com/reeflab/coralmcda/internal/domain"
	"gonum.org/v1/gonum/mat"
)

// DomainSource supplies the five external data sets used as Domain
// construction inputs: sites, connectivity, species table, climate
// forcing, and initial cover. Implementations are free to source
// these from CSV, a database, or an in-memory fixture; internal/domain
// itself never depends on any particular source.
type DomainSource interface {
	// LoadSites returns the reef location table.
	LoadSites() ([]domain.Location, error)

	// LoadConnectivity returns the N_loc × N_loc larval-export transition
	// matrix, rows summing to <= 1, in the same location order LoadSites
	// returned.
	LoadConnectivity(n int) (*mat.Dense, error)

	// LoadSpecies returns the 36-row (taxon × size-class) coral
	// parameter table, ordered to match the cover cube's species axis.
	LoadSpecies() ([]domain.SpeciesBin, error)

	// LoadClimate returns the T × N_loc × R DHW and wave-stress arrays,
	// flattened row-major as internal/climate.Forcing expects.
	LoadClimate(t, n, r int) (dhw, wave []float64, err error)

	// LoadInitialCover returns the 36 × N_loc initial coral cover cube,
	// flattened via domain.Domain.CoverIndex.
	LoadInitialCover(n int) ([]float64, error)
}
