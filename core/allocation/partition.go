package allocation

import (
	"fmt"
	"sort"

	"github.com/kilianp07/maskalloc/core/model"
)

type facility struct {
	pharmacy    model.Pharmacy
	load        int
	initialLoad int
	processed   bool
	members     map[int]struct{}
}

type point struct {
	street   model.Street
	original int
	current  int
}

// Partition owns the pharmacies, the streets and the relation between them.
// Pharmacies and streets are addressed by their index in input order.
//
// Membership is only ever changed through move, which keeps the facility
// member sets, the per-street owner and the loads consistent.
type Partition struct {
	facilities  []facility
	points      []point
	facilityIdx map[string]int
	pointIdx    map[string]int
	population  int
}

func newPartition(pharmacies []model.Pharmacy, streetHint int) *Partition {
	p := &Partition{
		facilities:  make([]facility, len(pharmacies)),
		points:      make([]point, 0, streetHint),
		facilityIdx: make(map[string]int, len(pharmacies)),
		pointIdx:    make(map[string]int, streetHint),
	}
	for i, ph := range pharmacies {
		p.facilities[i] = facility{pharmacy: ph, members: make(map[int]struct{})}
		if _, ok := p.facilityIdx[ph.ID]; !ok {
			p.facilityIdx[ph.ID] = i
		}
	}
	return p
}

// assign appends a street to the partition and gives it to facility f.
func (p *Partition) assign(s model.Street, f int) {
	j := len(p.points)
	p.points = append(p.points, point{street: s, original: f, current: f})
	if _, ok := p.pointIdx[s.Key()]; !ok {
		p.pointIdx[s.Key()] = j
	}
	fac := &p.facilities[f]
	fac.load += s.Population
	fac.initialLoad += s.Population
	fac.members[j] = struct{}{}
	p.population += s.Population
}

// move transfers street j to facility to.
func (p *Partition) move(j, to int) {
	pt := &p.points[j]
	from := pt.current
	if from == to {
		return
	}
	n := pt.street.Population

	p.facilities[from].load -= n
	delete(p.facilities[from].members, j)

	p.facilities[to].load += n
	p.facilities[to].members[j] = struct{}{}

	pt.current = to
}

// Len returns the number of pharmacies.
func (p *Partition) Len() int { return len(p.facilities) }

// Streets returns the number of assigned streets.
func (p *Partition) Streets() int { return len(p.points) }

// Population returns the total population of the assigned streets.
func (p *Partition) Population() int { return p.population }

// TargetLoad returns coeff times the mean load. It is zero for an empty
// partition.
func (p *Partition) TargetLoad(coeff float64) float64 {
	if len(p.facilities) == 0 {
		return 0
	}
	return coeff * float64(p.population) / float64(len(p.facilities))
}

// Pharmacy returns the pharmacy at index i.
func (p *Partition) Pharmacy(i int) model.Pharmacy { return p.facilities[i].pharmacy }

// Street returns the street at index j.
func (p *Partition) Street(j int) model.Street { return p.points[j].street }

// Load returns the current load of pharmacy i.
func (p *Partition) Load(i int) int { return p.facilities[i].load }

// InitialLoad returns the load of pharmacy i as computed by Build.
func (p *Partition) InitialLoad(i int) int { return p.facilities[i].initialLoad }

// Loads returns a copy of the current loads in pharmacy order.
func (p *Partition) Loads() []int {
	out := make([]int, len(p.facilities))
	for i := range p.facilities {
		out[i] = p.facilities[i].load
	}
	return out
}

// Owner returns the index of the pharmacy currently serving street j.
func (p *Partition) Owner(j int) int { return p.points[j].current }

// OriginalOwner returns the index of the pharmacy closest to street j.
func (p *Partition) OriginalOwner(j int) int { return p.points[j].original }

// Members returns the streets served by pharmacy i in input order.
func (p *Partition) Members(i int) []int {
	out := make([]int, 0, len(p.facilities[i].members))
	for j := range p.facilities[i].members {
		out = append(out, j)
	}
	sort.Ints(out)
	return out
}

// PharmacyIndex resolves a pharmacy ID.
func (p *Partition) PharmacyIndex(id string) (int, bool) {
	i, ok := p.facilityIdx[id]
	return i, ok
}

// StreetIndex resolves a street key.
func (p *Partition) StreetIndex(key string) (int, bool) {
	j, ok := p.pointIdx[key]
	return j, ok
}

// Verify checks that every street belongs to exactly the pharmacy recorded
// as its owner, that every load equals the population of its members and
// that the total population is unchanged.
func (p *Partition) Verify() error {
	total := 0
	seen := 0
	for i := range p.facilities {
		f := &p.facilities[i]
		sum := 0
		for j := range f.members {
			if j < 0 || j >= len(p.points) {
				return fmt.Errorf("%w: pharmacy %s holds unknown street %d", ErrInconsistentPartition, f.pharmacy.ID, j)
			}
			if p.points[j].current != i {
				return fmt.Errorf("%w: street %s is owned by %d but member of %d",
					ErrInconsistentPartition, p.points[j].street.Key(), p.points[j].current, i)
			}
			sum += p.points[j].street.Population
		}
		if sum != f.load {
			return fmt.Errorf("%w: pharmacy %s load %d, members sum %d", ErrInconsistentPartition, f.pharmacy.ID, f.load, sum)
		}
		total += f.load
		seen += len(f.members)
	}
	if seen != len(p.points) {
		return fmt.Errorf("%w: %d memberships for %d streets", ErrInconsistentPartition, seen, len(p.points))
	}
	if total != p.population {
		return fmt.Errorf("%w: total load %d, population %d", ErrInconsistentPartition, total, p.population)
	}
	return nil
}
