package generator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/vanshika/bizflow/internal/domain"
	"github.com/vanshika/bizflow/internal/service"
)

// Dataset contains the generated businesses and historical transactions.
type Dataset struct {
	Businesses   []domain.Business          `json:"businesses"`
	Transactions []service.TransactionInput `json:"transactions"`
}

// Seeder synthesises a business directory and a backlog of transactions
// between its members.
type Seeder struct {
	cfg           SeedConfig
	rand          *rand.Rand
	nameFragments nameFragments
	now           func() time.Time
}

// NewSeeder returns a configured Seeder. Zero values fall back to DefaultSeedConfig.
func NewSeeder(cfg SeedConfig) *Seeder {
	def := DefaultSeedConfig()
	if cfg.NumBusinesses <= 0 {
		cfg.NumBusinesses = def.NumBusinesses
	}
	if cfg.NumTransactions < 0 {
		cfg.NumTransactions = 0
	}
	if cfg.History <= 0 {
		cfg.History = def.History
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Seeder{
		cfg:           cfg,
		rand:          rand.New(rand.NewSource(cfg.Seed)),
		nameFragments: defaultNameFragments(),
		now:           time.Now,
	}
}

// Generate synthesises the dataset. It respects context cancellation.
func (s *Seeder) Generate(ctx context.Context) (Dataset, error) {
	businesses := make([]domain.Business, s.cfg.NumBusinesses)
	used := make(map[string]int, s.cfg.NumBusinesses)

	for i := range businesses {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}

		name := s.randomBusinessName()
		used[name]++
		if n := used[name]; n > 1 {
			name = fmt.Sprintf("%s %d", name, n)
		}
		businesses[i] = domain.Business{
			ID:   fmt.Sprintf("BIZ-%05d", i+1),
			Name: name,
		}
	}

	var transactions []service.TransactionInput
	if len(businesses) >= 2 && s.cfg.NumTransactions > 0 {
		transactions = make([]service.TransactionInput, s.cfg.NumTransactions)
		now := s.now().UTC()
		for i := range transactions {
			if err := ctx.Err(); err != nil {
				return Dataset{}, err
			}

			fromIdx := s.rand.Intn(len(businesses))
			toIdx := s.rand.Intn(len(businesses))
			if fromIdx == toIdx {
				toIdx = (toIdx + 1) % len(businesses)
			}

			transactions[i] = service.TransactionInput{
				From:      businesses[fromIdx].ID,
				To:        businesses[toIdx].ID,
				Amount:    float64(minAmount + s.rand.Intn(maxAmount-minAmount+1)),
				Timestamp: now.Add(-time.Duration(s.rand.Int63n(int64(s.cfg.History)))),
			}
		}
	}

	return Dataset{Businesses: businesses, Transactions: transactions}, nil
}

func (s *Seeder) randomBusinessName() string {
	f := s.nameFragments
	switch s.rand.Intn(3) {
	case 0:
		return fmt.Sprintf("%s %s %s", pick(s.rand, f.prefixes), pick(s.rand, f.sectors), pick(s.rand, f.suffixes))
	case 1:
		return fmt.Sprintf("%s %s", pick(s.rand, f.cities), pick(s.rand, f.sectors))
	default:
		return fmt.Sprintf("%s & %s %s", pick(s.rand, f.surnames), pick(s.rand, f.surnames), pick(s.rand, f.suffixes))
	}
}

func pick(r *rand.Rand, options []string) string {
	return options[r.Intn(len(options))]
}

type nameFragments struct {
	prefixes []string
	sectors  []string
	suffixes []string
	cities   []string
	surnames []string
}

func defaultNameFragments() nameFragments {
	return nameFragments{
		prefixes: []string{"Acme", "Globex", "Initech", "Summit", "Northwind", "Bluefin", "Redwood", "Granite", "Harbor", "Lumen", "Vertex", "Cobalt"},
		sectors:  []string{"Logistics", "Foods", "Supply", "Textiles", "Analytics", "Hardware", "Pharma", "Energy", "Freight", "Labs", "Media", "Metals"},
		suffixes: []string{"Inc", "LLC", "Co", "Group", "Partners", "Ltd", "Holdings"},
		cities:   []string{"Seattle", "Austin", "Chicago", "Denver", "Boston", "Miami", "Portland", "Atlanta", "Phoenix"},
		surnames: []string{"Patel", "Garcia", "Chen", "Khan", "Silva", "Nguyen", "Brown", "Kim", "Ivanov", "Lee"},
	}
}
