package services

import (
	"fmt"
	"sort"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
	"github.com/wbattistetti/AILawyer-sub000/internal/metrics"
	"github.com/wbattistetti/AILawyer-sub000/internal/scanner"
)

// personRef addresses a person within a case.
type personRef struct {
	caseID string
	id     string
}

// PersonRegistry is the in-memory set of resolved persons of an extraction run.
// Resolve and Merge are its only mutation entry points and are safe to call
// from any goroutine, including after a document has been closed.
type PersonRegistry struct {
	mu      sync.Mutex
	persons map[personRef]*domain.Person
	titles  map[personRef]mapset.Set[string]
	byName  map[string][]string // case id + normalised name -> person ids
	order   []personRef
	now     func() time.Time
}

// NewPersonRegistry creates an empty registry.
func NewPersonRegistry() *PersonRegistry {
	return &PersonRegistry{
		persons: make(map[personRef]*domain.Person),
		titles:  make(map[personRef]mapset.Set[string]),
		byName:  make(map[string][]string),
		now:     time.Now,
	}
}

func nameKey(caseID, fullName string) string {
	return caseID + "|" + scanner.NormalizeKeyPart(fullName)
}

// Seed adds persisted persons so later occurrences can resolve to them.
// Persons already present are left untouched.
func (r *PersonRegistry) Seed(persons []domain.Person) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range persons {
		ref := personRef{caseID: p.CaseID, id: p.ID}
		if _, ok := r.persons[ref]; ok {
			continue
		}
		r.insert(ref, p)
	}
}

func (r *PersonRegistry) insert(ref personRef, p domain.Person) {
	cp := p
	cp.Titles = nil
	r.persons[ref] = &cp
	r.titles[ref] = mapset.NewThreadUnsafeSet(p.Titles...)
	k := nameKey(ref.caseID, p.FullName)
	r.byName[k] = append(r.byName[k], ref.id)
	r.order = append(r.order, ref)
}

// Resolve assigns an occurrence to a person of the case and returns the
// person after the merge. Among persons with the same normalised name whose
// fields do not conflict, the most complete one wins; without any, a new
// person is created with the occurrence's person key as id.
func (r *PersonRegistry) Resolve(caseID string, occ domain.Occurrence) domain.Person {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ref, ok := r.bestMatch(caseID, occ); ok {
		p := r.persons[ref]
		p.FillEmpty(occ.Fields)
		if p.FirstName == "" {
			p.FirstName = occ.FirstName
		}
		if p.LastName == "" {
			p.LastName = occ.LastName
		}
		p.Confidence = max(p.Confidence, occ.Confidence)
		p.OccurrenceCount++
		if occ.Title != "" {
			r.titles[ref].Add(occ.Title)
		}
		p.UpdatedAt = r.now()
		metrics.Resolutions.WithLabelValues(metrics.OutcomeMerged).Inc()
		return r.snapshot(ref)
	}

	key := occ.PersonKey
	if key == "" {
		key = scanner.PersonKey(occ.FullName, occ.Fields.DOB, occ.Fields.City)
	}
	ref := personRef{caseID: caseID, id: key}
	for n := 2; ; n++ {
		if _, taken := r.persons[ref]; !taken {
			break
		}
		ref.id = fmt.Sprintf("%s-%d", key, n)
	}

	p := domain.Person{
		ID:              ref.id,
		CaseID:          caseID,
		FullName:        occ.FullName,
		FirstName:       occ.FirstName,
		LastName:        occ.LastName,
		Confidence:      occ.Confidence,
		OccurrenceCount: 1,
		UpdatedAt:       r.now(),
	}
	p.FillEmpty(occ.Fields)
	if occ.Title != "" {
		p.Titles = []string{occ.Title}
	}
	r.insert(ref, p)
	metrics.Resolutions.WithLabelValues(metrics.OutcomeCreated).Inc()
	return r.snapshot(ref)
}

func (r *PersonRegistry) bestMatch(caseID string, occ domain.Occurrence) (personRef, bool) {
	var best personRef
	bestScore := -1
	for _, id := range r.byName[nameKey(caseID, occ.FullName)] {
		ref := personRef{caseID: caseID, id: id}
		p := r.persons[ref]
		if !p.CompatibleWith(occ.Fields) {
			continue
		}
		if score := p.Completeness(); score > bestScore {
			best, bestScore = ref, score
		}
	}
	return best, bestScore >= 0
}

// Merge fills empty fields of an existing person, typically with the result
// of address enrichment. Populated fields are never overwritten.
// It reports false when the person is unknown or nothing changed.
func (r *PersonRegistry) Merge(caseID, personID string, fields domain.OccurrenceFields) (domain.Person, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref := personRef{caseID: caseID, id: personID}
	p, ok := r.persons[ref]
	if !ok {
		return domain.Person{}, false
	}
	if !p.FillEmpty(fields) {
		return r.snapshot(ref), false
	}
	p.UpdatedAt = r.now()
	return r.snapshot(ref), true
}

// Retract takes n occurrences off a person's count, never below zero. It is
// used when a document is extracted again and its stored occurrences are
// replaced. It reports false when the person is unknown.
func (r *PersonRegistry) Retract(caseID, personID string, n int) (domain.Person, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref := personRef{caseID: caseID, id: personID}
	p, ok := r.persons[ref]
	if !ok {
		return domain.Person{}, false
	}
	p.OccurrenceCount = max(p.OccurrenceCount-n, 0)
	return r.snapshot(ref), true
}

// Get returns a copy of a person.
func (r *PersonRegistry) Get(caseID, personID string) (domain.Person, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref := personRef{caseID: caseID, id: personID}
	if _, ok := r.persons[ref]; !ok {
		return domain.Person{}, false
	}
	return r.snapshot(ref), true
}

// Persons returns copies of all persons in creation order.
func (r *PersonRegistry) Persons() []domain.Person {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Person, 0, len(r.order))
	for _, ref := range r.order {
		out = append(out, r.snapshot(ref))
	}
	return out
}

// Len returns the number of persons.
func (r *PersonRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// snapshot copies a person with its sorted titles. Callers hold r.mu.
func (r *PersonRegistry) snapshot(ref personRef) domain.Person {
	p := *r.persons[ref]
	if set := r.titles[ref]; set != nil && set.Cardinality() > 0 {
		p.Titles = set.ToSlice()
		sort.Strings(p.Titles)
	}
	return p
}
