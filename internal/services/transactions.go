package services

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/session"
	"finboard/internal/wire"
)

const (
	DefaultPageSize = 200
	// maxPages stops a backend that never returns an empty page.
	maxPages = 500
)

// ListParams selects one page of transactions. Zero fields are omitted from
// the query.
type ListParams struct {
	Page  int
	Limit int
	Type  core.TransactionType
	Start string
	End   string
}

func (p ListParams) query() string {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Type != "" {
		q.Set("type", string(p.Type))
	}
	if p.Start != "" {
		q.Set("start_date", p.Start)
	}
	if p.End != "" {
		q.Set("end_date", p.End)
	}
	if len(q) == 0 {
		return "/transactions"
	}
	return "/transactions?" + q.Encode()
}

// TransactionPatch carries the fields of an update. Nil fields are not sent.
type TransactionPatch struct {
	Name    *string
	Amount  *core.Amount
	Type    *core.TransactionType
	Date    *string
	Comment *string
}

func (p TransactionPatch) payload() map[string]any {
	body := make(map[string]any)
	if p.Name != nil && *p.Name != "" {
		body["name"] = *p.Name
	}
	if p.Amount != nil && p.Amount.Valid {
		body["amount"] = p.Amount.Float64()
	}
	if p.Type != nil && *p.Type != "" {
		body["type"] = string(*p.Type)
	}
	if p.Date != nil && *p.Date != "" {
		body["transaction_date"] = *p.Date
	}
	if p.Comment != nil && *p.Comment != "" {
		body["comment"] = *p.Comment
	}
	return body
}

type transactionPayload struct {
	Name            string  `json:"name"`
	Amount          float64 `json:"amount"`
	Type            string  `json:"type"`
	Comment         string  `json:"comment"`
	Department      string  `json:"department"`
	TransactionDate string  `json:"transactionDate"`
}

// TransactionService reads and mutates the company's transactions. Full
// listings are cached per company until the TTL runs out or a mutation
// purges them.
type TransactionService struct {
	api      API
	session  session.Reader
	cache    cache.Cache[[]core.Transaction]
	pageSize int
	logger   *log.Logger
}

// NewTransactionService wires the service. A nil cache disables caching and
// a non-positive pageSize uses DefaultPageSize.
func NewTransactionService(api API, sess session.Reader, c cache.Cache[[]core.Transaction], pageSize int, logger *log.Logger) *TransactionService {
	if c == nil {
		c = cache.NewLRUCache[[]core.Transaction](1, 0)
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &TransactionService{
		api:      api,
		session:  sess,
		cache:    c,
		pageSize: pageSize,
		logger:   log.OrDiscard(logger).WithComponent(log.ComponentServices),
	}
}

// List fetches a single page.
func (s *TransactionService) List(ctx context.Context, p ListParams) ([]core.Transaction, error) {
	var list wire.TransactionList
	if err := s.api.Get(ctx, p.query(), &list); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return list.Transactions(), nil
}

// ListAll walks pages from 1 until the backend returns an empty one.
func (s *TransactionService) ListAll(ctx context.Context) ([]core.Transaction, error) {
	txs, err := cache.GetOrLoad(ctx, s.cache, s.cacheKey(), s.fetchAll)
	if err != nil {
		return nil, err
	}
	return slices.Clone(txs), nil
}

func (s *TransactionService) fetchAll(ctx context.Context) ([]core.Transaction, error) {
	start := time.Now()
	var all []core.Transaction
	for page := 1; ; page++ {
		if page > maxPages {
			s.logger.WarnContext(ctx, "transaction paging stopped at page limit",
				log.FieldCount, len(all))
			break
		}
		batch, err := s.List(ctx, ListParams{Page: page, Limit: s.pageSize})
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
	}
	s.logger.DebugContext(ctx, "fetched all transactions",
		log.FieldCount, len(all),
		log.FieldDuration, time.Since(start).Milliseconds())
	if all == nil {
		all = []core.Transaction{}
	}
	return all, nil
}

func (s *TransactionService) cacheKey() string {
	if id, ok := s.session.CompanyID(); ok {
		return "all:" + id
	}
	if u, ok := s.session.ReadCachedUser(); ok {
		return "all:user:" + u.ID
	}
	return "all:"
}

// Create validates the form input and posts it for the signed-in user.
func (s *TransactionService) Create(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	in.Type = core.TransactionType(strings.ToLower(strings.TrimSpace(string(in.Type))))
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}
	u, ok := s.session.ReadCachedUser()
	if !ok || u.ID == "" {
		return core.Transaction{}, ErrNoUser
	}
	date, err := time.Parse(core.DateLayout, strings.TrimSpace(in.Date))
	if err != nil {
		return core.Transaction{}, core.ErrInvalidDate
	}

	body := transactionPayload{
		Name:            strings.TrimSpace(in.Name),
		Amount:          in.Amount.Float64(),
		Type:            string(in.Type),
		Comment:         strings.TrimSpace(in.Comment),
		Department:      strings.TrimSpace(in.Department),
		TransactionDate: date.UTC().Format(wireTime),
	}
	var env wire.TransactionEnvelope
	if err := s.api.Post(ctx, "/transactions", body, &env); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.cache.Purge()

	tx, ok := env.Transaction()
	if !ok {
		// Older backends answer with a status message only.
		tx = core.Transaction{
			Department:      body.Department,
			Name:            body.Name,
			Amount:          in.Amount,
			Type:            in.Type,
			Comment:         body.Comment,
			TransactionDate: body.TransactionDate,
		}
	}
	return tx, nil
}

// Update sends only the fields set in patch.
func (s *TransactionService) Update(ctx context.Context, id string, patch TransactionPatch) (core.Transaction, error) {
	if strings.TrimSpace(id) == "" {
		return core.Transaction{}, ErrMissingID
	}
	if patch.Type != nil && *patch.Type != "" {
		t, ok := core.ParseTransactionType(string(*patch.Type))
		if !ok {
			return core.Transaction{}, core.ErrInvalidType
		}
		patch.Type = &t
	}
	var env wire.TransactionEnvelope
	if err := s.api.Put(ctx, "/transactions/"+url.PathEscape(id), patch.payload(), &env); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.cache.Purge()
	tx, _ := env.Transaction()
	if tx.ID == "" {
		tx.ID = id
	}
	return tx, nil
}

// Delete removes tx unless it is locked.
func (s *TransactionService) Delete(ctx context.Context, tx core.Transaction) error {
	if tx.Locked {
		return ErrTransactionLocked
	}
	return s.DeleteByID(ctx, tx.ID)
}

func (s *TransactionService) DeleteByID(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrMissingID
	}
	if err := s.api.Delete(ctx, "/transactions/"+url.PathEscape(id), nil); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.cache.Purge()
	return nil
}

// Invalidate drops every cached listing.
func (s *TransactionService) Invalidate() {
	s.cache.Purge()
}
