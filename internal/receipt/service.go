package receipt

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/zombor/receipt-processor/internal/scoring"
)

// maxIDAttempts bounds how many fresh IDs are tried when a generated ID
// collides with one already stored.
const maxIDAttempts = 3

// IDGenerator generates unique IDs for receipts
type IDGenerator interface {
	Generate() string
}

// uuidGenerator generates random (version 4) UUIDs
type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

// Service scores receipts and keeps their points by ID
type Service struct {
	db          DB
	idGenerator IDGenerator
}

// NewService creates a new Service with the default ID generator
func NewService(db DB) *Service {
	return &Service{
		db:          db,
		idGenerator: &uuidGenerator{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, idGen IDGenerator) *Service {
	return &Service{
		db:          db,
		idGenerator: idGen,
	}
}

// ProcessReceipt validates and scores a receipt, stores its points under a
// new ID and returns that ID. Nothing is stored when any step fails.
func (s *Service) ProcessReceipt(req ProcessRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidReceipt, err)
	}

	receipt := req.ToReceipt()
	breakdown, err := scoring.Explain(receipt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidReceipt, err)
	}
	points := breakdown.Total()

	id, err := s.save(points)
	if err != nil {
		return "", err
	}

	slog.Debug("Scored receipt",
		"id", id,
		"retailer", receipt.Retailer,
		"points", points,
		"rules", breakdown,
	)
	return id, nil
}

// save stores points under a freshly generated ID, retrying on collision
func (s *Service) save(points int) (string, error) {
	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		id := s.idGenerator.Generate()
		err := s.db.SavePoints(id, points)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, ErrDuplicateID) {
			return "", fmt.Errorf("saving receipt points: %w", err)
		}
		slog.Warn("Receipt ID collision", "id", id, "attempt", attempt)
	}
	return "", fmt.Errorf("could not generate a unique receipt ID after %d attempts", maxIDAttempts)
}

// GetPoints returns the points stored for a receipt ID
func (s *Service) GetPoints(id string) (int, error) {
	points, err := s.db.GetPoints(id)
	if err != nil {
		return 0, fmt.Errorf("getting points: %w", err)
	}
	return points, nil
}
