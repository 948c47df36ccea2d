// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package route partitions screening decisions into their destination
// groups and delivers them to the reference manager.
package route

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ahzs645/saturationsearch/pkg/types"
)

// Partition groups screening decisions by destination. Manual review takes
// precedence: an uncertain decision goes to reviewers regardless of which
// way the screener leaned.
type Partition struct {
	Included     []types.ScreeningDecision
	ManualReview []types.ScreeningDecision
	Excluded     []types.ScreeningDecision
}

// Split partitions decisions. Every input decision lands in exactly one
// group.
func Split(decisions []types.ScreeningDecision) Partition {
	var p Partition
	for _, d := range decisions {
		switch {
		case d.ManualReviewRequired:
			p.ManualReview = append(p.ManualReview, d)
		case d.Included:
			p.Included = append(p.Included, d)
		default:
			p.Excluded = append(p.Excluded, d)
		}
	}
	return p
}

// Total returns the number of decisions across all groups.
func (p Partition) Total() int {
	return len(p.Included) + len(p.ManualReview) + len(p.Excluded)
}

// Library is the reference-manager capability delivery needs.
type Library interface {
	CreateCollection(ctx context.Context, name string) (string, error)
	AddItem(ctx context.Context, collectionKey string, rec types.Record) (string, error)
	AddTags(ctx context.Context, itemKey string, tags []string) error
}

// CollectionNames returns the month-stamped collection names for a run.
func CollectionNames(ts time.Time) (included, review, excluded string) {
	stamp := ts.Format("200601")
	return "SearchResults" + stamp, "ManualReview" + stamp, "Excluded" + stamp
}

// DeliveryReport summarizes one delivery.
type DeliveryReport struct {
	// Collections maps collection name to its library key.
	Collections map[string]string `json:"collections" yaml:"collections"`

	ItemsAdded int `json:"items_added" yaml:"items_added"`

	// ItemsFailed counts records that could not be delivered. Failures
	// are logged and skipped so the rest of the batch still lands.
	ItemsFailed int `json:"items_failed" yaml:"items_failed"`
}

// Deliverer pushes partitioned decisions into library collections.
type Deliverer struct {
	lib    Library
	logger *zap.Logger
}

// NewDeliverer returns a Deliverer backed by the given library.
func NewDeliverer(lib Library, logger *zap.Logger) *Deliverer {
	return &Deliverer{lib: lib, logger: logger}
}

// Deliver creates the run's collections and uploads each group. Empty
// groups get no collection. A collection-creation failure skips that
// whole group; an item failure skips only that item.
func (d *Deliverer) Deliver(ctx context.Context, p Partition, ts time.Time) (DeliveryReport, error) {
	report := DeliveryReport{Collections: make(map[string]string)}

	includedName, reviewName, excludedName := CollectionNames(ts)
	groups := []struct {
		name      string
		decisions []types.ScreeningDecision
	}{
		{includedName, p.Included},
		{reviewName, p.ManualReview},
		{excludedName, p.Excluded},
	}

	var firstErr error
	for _, g := range groups {
		if len(g.decisions) == 0 {
			continue
		}
		key, err := d.lib.CreateCollection(ctx, g.name)
		if err != nil {
			if d.logger != nil {
				d.logger.Error("collection creation failed",
					zap.String("collection", g.name), zap.Error(err))
			}
			report.ItemsFailed += len(g.decisions)
			if firstErr == nil {
				firstErr = fmt.Errorf("collection %s: %w", g.name, err)
			}
			continue
		}
		report.Collections[g.name] = key

		for _, dec := range g.decisions {
			if err := d.deliverOne(ctx, key, dec); err != nil {
				report.ItemsFailed++
				if d.logger != nil {
					d.logger.Warn("item delivery failed",
						zap.String("collection", g.name),
						zap.String("title", dec.Record.Title),
						zap.Error(err))
				}
				continue
			}
			report.ItemsAdded++
		}
	}

	if d.logger != nil {
		d.logger.Info("delivery complete",
			zap.Int("added", report.ItemsAdded),
			zap.Int("failed", report.ItemsFailed))
	}
	return report, firstErr
}

func (d *Deliverer) deliverOne(ctx context.Context, collectionKey string, dec types.ScreeningDecision) error {
	itemKey, err := d.lib.AddItem(ctx, collectionKey, dec.Record)
	if err != nil {
		return err
	}

	tags := []string{"Saturation Search"}
	if dec.Theme != "" && dec.Theme != types.ThemeUnknown {
		tags = append(tags, string(dec.Theme))
	}
	if dec.Record.PreviouslyKnown {
		tags = append(tags, "Previously Known")
	}
	if dec.Record.Provenance != "" {
		tags = append(tags, dec.Record.Provenance)
	}
	return d.lib.AddTags(ctx, itemKey, tags)
}
