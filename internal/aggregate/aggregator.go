package aggregate

import (
	"context"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/mrgeneko/namknob/internal/domain"
)

const DefaultLabel = "nam_volume_knob"

// Aggregator decides how a batch's artifacts reach the user: one by one, or
// bundled into a single uncompressed archive when there is more than one and
// an archiver is available.
type Aggregator struct {
	deliverer domain.Deliverer
	archiver  domain.Archiver
	label     string
	logger    *zap.Logger
}

// NewAggregator builds an Aggregator. A nil archiver means archives are
// unavailable and every artifact is delivered individually.
func NewAggregator(deliverer domain.Deliverer, archiver domain.Archiver, label string, logger *zap.Logger) *Aggregator {
	if label == "" {
		label = DefaultLabel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		deliverer: deliverer,
		archiver:  archiver,
		label:     label,
		logger:    logger,
	}
}

func (a *Aggregator) ArchiveName(unit domain.GainUnit) string {
	return a.label + "_" + unit.Suffix() + ".zip"
}

func (a *Aggregator) Aggregate(ctx context.Context, unit domain.GainUnit, artifacts []domain.Artifact) domain.Delivery {
	if len(artifacts) == 0 {
		return domain.Delivery{Mode: domain.DeliveryNone}
	}

	entries := Unique(artifacts)

	if len(entries) == 1 || a.archiver == nil {
		return a.deliverEach(ctx, entries)
	}

	delivery, err := a.deliverArchive(ctx, unit, entries)
	if err == nil {
		return delivery
	}

	a.logger.Warn("archive failed, delivering artifacts individually",
		zap.Int("artifacts", len(entries)),
		zap.Error(err))

	delivery = a.deliverEach(ctx, entries)
	delivery.Fallback = err
	return delivery
}

func (a *Aggregator) deliverArchive(ctx context.Context, unit domain.GainUnit, entries []domain.Entry) (domain.Delivery, error) {
	data, err := a.archiver.Archive(entries, domain.ArchiveOptions{Level: 0})
	if err != nil {
		return domain.Delivery{}, domain.AggregationError.Wrap(err, "encode archive")
	}

	name := a.ArchiveName(unit)
	location, err := a.deliverer.Deliver(ctx, name, data)
	if err != nil {
		return domain.Delivery{}, domain.AggregationError.Wrap(err, "deliver archive %s", name)
	}

	a.logger.Info("archive delivered",
		zap.String("archive", name),
		zap.String("location", location),
		zap.Int("entries", len(entries)))

	return domain.Delivery{
		Mode:        domain.DeliveryArchive,
		ArchiveName: name,
		Locations:   []string{location},
	}, nil
}

func (a *Aggregator) deliverEach(ctx context.Context, entries []domain.Entry) domain.Delivery {
	delivery := domain.Delivery{Mode: domain.DeliveryIndividual}

	for _, e := range entries {
		location, err := a.deliverer.Deliver(ctx, e.Name, e.Content)
		if err != nil {
			delivery.Failures = append(delivery.Failures, domain.DeliveryError.Wrap(err, "deliver %s", e.Name))
			continue
		}
		delivery.Locations = append(delivery.Locations, location)
	}

	return delivery
}

// Unique keeps the first occurrence of every name and renames later
// collisions to name_v2, name_v3, and so on, preserving order.
func Unique(artifacts []domain.Artifact) []domain.Entry {
	seen := make(map[string]bool, len(artifacts))
	entries := make([]domain.Entry, 0, len(artifacts))

	for _, a := range artifacts {
		name := a.Name
		if seen[name] {
			ext := path.Ext(name)
			base := strings.TrimSuffix(name, ext)
			for n := 2; seen[name]; n++ {
				name = fmt.Sprintf("%s_v%d%s", base, n, ext)
			}
		}
		seen[name] = true
		entries = append(entries, domain.Entry{Name: name, Content: a.Content})
	}

	return entries
}
