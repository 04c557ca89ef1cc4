package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"finboard/internal/access"
	"finboard/internal/aggregate"
	"finboard/internal/apiclient"
	"finboard/internal/core"
	"finboard/internal/log"
)

// RecentLimit is how many transactions the dashboard lists.
const RecentLimit = 5

// Workspace bundles the services a dashboard view needs.
type Workspace struct {
	Transactions *TransactionService
	Reports      *ReportService
	Members      *MemberService
	logger       *log.Logger
}

func NewWorkspace(tx *TransactionService, reports *ReportService, members *MemberService, logger *log.Logger) *Workspace {
	return &Workspace{
		Transactions: tx,
		Reports:      reports,
		Members:      members,
		logger:       log.OrDiscard(logger).WithComponent(log.ComponentServices),
	}
}

// Snapshot is everything loaded for one dashboard render.
type Snapshot struct {
	Transactions []core.Transaction
	Notices      []core.Report
	Members      []core.User
	// MembersHidden is set when the member list was skipped or refused.
	MembersHidden bool
}

// Load fetches transactions, notices and, for admins, members concurrently.
// A permission failure on members is not an error.
func (w *Workspace) Load(ctx context.Context, viewer access.Principal) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		txs, err := w.Transactions.ListAll(gctx)
		if err != nil {
			return err
		}
		snap.Transactions = txs
		return nil
	})
	g.Go(func() error {
		notices, err := w.Reports.List(gctx, ReportParams{})
		if err != nil {
			return err
		}
		snap.Notices = notices
		return nil
	})

	if access.Decide(viewer.IsAuthenticated(), viewer.Roles().Strings(), access.Admin).Allow {
		g.Go(func() error {
			members, err := w.Members.List(gctx)
			if apiclient.IsUnauthorized(err) {
				w.logger.DebugContext(gctx, "member list refused", log.FieldError, err.Error())
				snap.MembersHidden = true
				return nil
			}
			if err != nil {
				return err
			}
			snap.Members = members
			return nil
		})
	} else {
		snap.MembersHidden = true
	}

	if err := g.Wait(); err != nil {
		return Snapshot{}, fmt.Errorf("load workspace: %w", err)
	}
	return snap, nil
}

// Dashboard is the derived dashboard view.
type Dashboard struct {
	Report            aggregate.Report
	Recent            []aggregate.Dated
	Notices           []core.Report
	Members           []core.User
	CanAddTransaction bool
}

// Dashboard loads the workspace and aggregates it with f.
func (w *Workspace) Dashboard(ctx context.Context, viewer access.Principal, f aggregate.Filter, now time.Time) (Dashboard, error) {
	snap, err := w.Load(ctx, viewer)
	if err != nil {
		return Dashboard{}, err
	}
	dated, _ := aggregate.Resolve(snap.Transactions, f.Location)
	return Dashboard{
		Report:            aggregate.Build(snap.Transactions, f, now),
		Recent:            aggregate.Recent(aggregate.Apply(dated, f), RecentLimit),
		Notices:           snap.Notices,
		Members:           snap.Members,
		CanAddTransaction: access.Decide(viewer.IsAuthenticated(), viewer.Roles().Strings(), access.Manager).Allow,
	}, nil
}
