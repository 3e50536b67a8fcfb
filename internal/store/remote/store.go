package remote

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/sitesaver/internal/auth"
	"github.com/MrSnakeDoc/sitesaver/internal/domain"
	"github.com/MrSnakeDoc/sitesaver/internal/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed schema.sql
var schemaSQL string

// User-facing failure messages.
const (
	MsgSaveFailed     = "Failed to save website"
	MsgFetchAllFailed = "Failed to fetch websites"
	MsgFetchFailed    = "Failed to fetch website"
	MsgUpdateFailed   = "Failed to update website"
	MsgDeleteFailed   = "Failed to delete website"
	MsgSearchFailed   = "Failed to search websites"
	MsgCategoryFailed = "Failed to fetch websites by category"
)

const columns = `id::text, user_id::text, website_name, website_url, category, website_status, created_at, updated_at`

// DBTX is the subset of *pgxpool.Pool the store uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is what the store is built on: DBTX plus transactions, as served by
// *pgxpool.Pool.
type DB interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// UserSource supplies the signed-in user.
type UserSource interface {
	CurrentUser() (auth.User, bool)
}

// Store is the owner-scoped cloud catalogue. Every statement filters on the
// current user and runs with that user as the request.jwt.claims subject the
// row policies check; a call without one fails before reaching the database.
type Store struct {
	db    DB
	users UserSource
	log   logger.Logger
}

func New(db DB, users UserSource, log logger.Logger) *Store {
	return &Store{db: db, users: users, log: log}
}

// EnsureSchema creates the websites table, its indexes and row policies.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// owner returns the current user id, or an auth_required error.
func (s *Store) owner(op string) (uuid.UUID, error) {
	u, ok := s.users.CurrentUser()
	if !ok || u.ID == "" {
		return uuid.Nil, domain.AuthRequired(op)
	}
	id, err := uuid.Parse(u.ID)
	if err != nil {
		return uuid.Nil, domain.AuthRequired(op)
	}
	return id, nil
}

// setClaimsSQL scopes the claims to the current transaction.
const setClaimsSQL = `SELECT set_config('request.jwt.claims', $1, true)`

// asOwner runs fn in a transaction whose claims name owner as the subject.
func (s *Store) asOwner(ctx context.Context, owner uuid.UUID, fn func(q DBTX) error) error {
	claims, err := json.Marshal(map[string]string{"sub": owner.String(), "role": "authenticated"})
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, setClaimsSQL, string(claims)); err != nil {
			return fmt.Errorf("set claims: %w", err)
		}
		return fn(tx)
	})
}

// fail logs the backend error and maps it to a generic remote error.
func (s *Store) fail(op, message string, err error) error {
	s.log.Error(message, logger.String("op", op), logger.Error(err))
	return domain.Remote(op, message, err)
}

// Insert writes a row owned by the current user and returns it with its
// server-assigned id and timestamps.
func (s *Store) Insert(ctx context.Context, w domain.NewWebsite) (domain.Website, error) {
	const op = "remote.insert"
	owner, err := s.owner(op)
	if err != nil {
		return domain.Website{}, err
	}
	w, err = w.Normalize()
	if err != nil {
		return domain.Website{}, err
	}

	var site domain.Website
	err = s.asOwner(ctx, owner, func(q DBTX) error {
		row := q.QueryRow(ctx,
			`INSERT INTO websites (user_id, website_name, website_url, category, website_status)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING `+columns,
			owner, w.Name, w.URL, domain.CategoryStrings(w.Categories), string(w.Status),
		)
		site, err = scanWebsite(row)
		return err
	})
	if err != nil {
		return domain.Website{}, s.fail(op, MsgSaveFailed, err)
	}
	return site, nil
}

// GetAll returns the current user's rows, newest first.
func (s *Store) GetAll(ctx context.Context) ([]domain.Website, error) {
	const op = "remote.getAll"
	owner, err := s.owner(op)
	if err != nil {
		return nil, err
	}

	sites, err := s.list(ctx, owner,
		`SELECT `+columns+` FROM websites WHERE user_id = $1 ORDER BY created_at DESC`,
		owner,
	)
	if err != nil {
		return nil, s.fail(op, MsgFetchAllFailed, err)
	}
	return sites, nil
}

// GetByID returns one of the current user's rows.
func (s *Store) GetByID(ctx context.Context, id string) (domain.Website, error) {
	const op = "remote.getById"
	owner, err := s.owner(op)
	if err != nil {
		return domain.Website{}, err
	}
	rowID, err := uuid.Parse(id)
	if err != nil {
		return domain.Website{}, domain.NotFound(op, "Website not found")
	}

	var site domain.Website
	err = s.asOwner(ctx, owner, func(q DBTX) error {
		site, err = scanWebsite(q.QueryRow(ctx,
			`SELECT `+columns+` FROM websites WHERE id = $1 AND user_id = $2`,
			rowID, owner,
		))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Website{}, domain.NotFound(op, "Website not found")
	}
	if err != nil {
		return domain.Website{}, s.fail(op, MsgFetchFailed, err)
	}
	return site, nil
}

// Update applies the non-nil fields of p and bumps updated_at.
func (s *Store) Update(ctx context.Context, id string, p domain.Patch) (domain.Website, error) {
	const op = "remote.update"
	owner, err := s.owner(op)
	if err != nil {
		return domain.Website{}, err
	}
	rowID, err := uuid.Parse(id)
	if err != nil {
		return domain.Website{}, domain.NotFound(op, "Website not found")
	}
	p, err = p.Normalize()
	if err != nil {
		return domain.Website{}, err
	}

	set, args := patchClause(p, rowID, owner)
	var site domain.Website
	err = s.asOwner(ctx, owner, func(q DBTX) error {
		site, err = scanWebsite(q.QueryRow(ctx,
			`UPDATE websites SET `+set+` WHERE id = $1 AND user_id = $2 RETURNING `+columns,
			args...,
		))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Website{}, domain.NotFound(op, "Website not found")
	}
	if err != nil {
		return domain.Website{}, s.fail(op, MsgUpdateFailed, err)
	}
	return site, nil
}

// patchClause builds the SET list; $1 and $2 are reserved for id and owner.
func patchClause(p domain.Patch, id, owner uuid.UUID) (string, []any) {
	args := []any{id, owner}
	sets := make([]string, 0, 5)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}

	if p.Name != nil {
		add("website_name", *p.Name)
	}
	if p.URL != nil {
		add("website_url", *p.URL)
	}
	if p.Categories != nil {
		add("category", domain.CategoryStrings(*p.Categories))
	}
	if p.Status != nil {
		add("website_status", string(*p.Status))
	}
	sets = append(sets, "updated_at = now()")
	return strings.Join(sets, ", "), args
}

// Delete removes one of the current user's rows.
func (s *Store) Delete(ctx context.Context, id string) error {
	const op = "remote.delete"
	owner, err := s.owner(op)
	if err != nil {
		return err
	}
	rowID, err := uuid.Parse(id)
	if err != nil {
		return domain.NotFound(op, "Website not found")
	}

	var tag pgconn.CommandTag
	err = s.asOwner(ctx, owner, func(q DBTX) error {
		tag, err = q.Exec(ctx, `DELETE FROM websites WHERE id = $1 AND user_id = $2`, rowID, owner)
		return err
	})
	if err != nil {
		return s.fail(op, MsgDeleteFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound(op, "Website not found")
	}
	return nil
}

// Search matches q case-insensitively as a substring of the name or URL.
func (s *Store) Search(ctx context.Context, q string) ([]domain.Website, error) {
	const op = "remote.search"
	owner, err := s.owner(op)
	if err != nil {
		return nil, err
	}

	sites, err := s.list(ctx, owner,
		`SELECT `+columns+` FROM websites
		 WHERE user_id = $1 AND (website_name ILIKE $2 ESCAPE '\' OR website_url ILIKE $2 ESCAPE '\')
		 ORDER BY created_at DESC`,
		owner, "%"+escapeLike(q)+"%",
	)
	if err != nil {
		return nil, s.fail(op, MsgSearchFailed, err)
	}
	return sites, nil
}

// GetByCategory returns the rows whose category set contains c.
func (s *Store) GetByCategory(ctx context.Context, c domain.Category) ([]domain.Website, error) {
	const op = "remote.getByCategory"
	owner, err := s.owner(op)
	if err != nil {
		return nil, err
	}

	sites, err := s.list(ctx, owner,
		`SELECT `+columns+` FROM websites WHERE user_id = $1 AND $2 = ANY(category) ORDER BY created_at DESC`,
		owner, string(c),
	)
	if err != nil {
		return nil, s.fail(op, MsgCategoryFailed, err)
	}
	return sites, nil
}

// list runs a row query as owner and collects the result.
func (s *Store) list(ctx context.Context, owner uuid.UUID, sql string, args ...any) ([]domain.Website, error) {
	var sites []domain.Website
	err := s.asOwner(ctx, owner, func(q DBTX) error {
		rows, err := q.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		sites, err = collectWebsites(rows)
		return err
	})
	return sites, err
}

// Ping checks the connection without touching user data.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	return s.db.QueryRow(ctx, `SELECT 1`).Scan(&one)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func scanWebsite(row pgx.Row) (domain.Website, error) {
	var (
		w          domain.Website
		categories []string
		status     string
	)
	if err := row.Scan(&w.ID, &w.UserID, &w.Name, &w.URL, &categories, &status, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return domain.Website{}, err
	}
	w.Categories = domain.CategoriesFromStrings(categories)
	w.Status = domain.Status(status)
	return w, nil
}

func collectWebsites(rows pgx.Rows) ([]domain.Website, error) {
	defer rows.Close()

	out := []domain.Website{}
	for rows.Next() {
		w, err := scanWebsite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
