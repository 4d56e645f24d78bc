package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	appErrors "github.com/unclebandit/ad-scheduler/internal/errors"
	"github.com/unclebandit/ad-scheduler/internal/model"
)

// pq code for exclusion_violation
const pgExclusionViolation = "23P01"

// CampaignRepositoryInterface is the campaign store. Campaigns are only ever inserted.
type CampaignRepositoryInterface interface {
	Create(ctx context.Context, c *model.Campaign) error
	GetByID(ctx context.Context, id int64) (*model.Campaign, error)
	// ListCampaigns returns every campaign by ascending start date, then id.
	ListCampaigns(ctx context.Context) ([]*model.Campaign, error)
	// FindOverlapping returns the first campaign, in ListCampaigns order, sharing a day with
	// [start, end], or nil.
	FindOverlapping(ctx context.Context, start, end model.Date) (*model.Campaign, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

// CampaignRepository stores campaigns in Postgres or SQLite.
type CampaignRepository struct {
	DB *sqlx.DB
}

func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{DB: db}
}

const campaignColumns = `id, name, start_date, end_date, created_at`

// campaignRow exists because SQLite hands created_at back as text.
type campaignRow struct {
	ID        int64      `db:"id"`
	Name      string     `db:"name"`
	StartDate model.Date `db:"start_date"`
	EndDate   model.Date `db:"end_date"`
	CreatedAt dbTime     `db:"created_at"`
}

func (r campaignRow) toModel() *model.Campaign {
	return &model.Campaign{
		ID:        r.ID,
		Name:      r.Name,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		CreatedAt: time.Time(r.CreatedAt),
	}
}

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	c.CreatedAt = time.Now().UTC()
	query := r.DB.Rebind(`
        INSERT INTO campaigns (name, start_date, end_date, created_at)
        VALUES (?, ?, ?, ?)
        RETURNING id
    `)
	err := r.DB.GetContext(ctx, &c.ID, query, c.Name, c.StartDate, c.EndDate, dbTime(c.CreatedAt))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgExclusionViolation {
			return appErrors.ErrOverlapViolation
		}
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id int64) (*model.Campaign, error) {
	query := r.DB.Rebind(`SELECT ` + campaignColumns + ` FROM campaigns WHERE id = ?`)
	var row campaignRow
	if err := r.DB.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return row.toModel(), nil
}

func (r *CampaignRepository) ListCampaigns(ctx context.Context) ([]*model.Campaign, error) {
	var rows []campaignRow
	query := `SELECT ` + campaignColumns + ` FROM campaigns ORDER BY start_date ASC, id ASC`
	if err := r.DB.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	campaigns := make([]*model.Campaign, 0, len(rows))
	for _, row := range rows {
		campaigns = append(campaigns, row.toModel())
	}
	return campaigns, nil
}

func (r *CampaignRepository) FindOverlapping(ctx context.Context, start, end model.Date) (*model.Campaign, error) {
	query := r.DB.Rebind(`
        SELECT ` + campaignColumns + `
        FROM campaigns
        WHERE end_date >= ? AND start_date <= ?
        ORDER BY start_date ASC, id ASC
        LIMIT 1
    `)
	var row campaignRow
	if err := r.DB.GetContext(ctx, &row, query, start, end); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check overlapping campaigns: %w", err)
	}
	return row.toModel(), nil
}

func (r *CampaignRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.DB.GetContext(ctx, &total, `SELECT COUNT(*) FROM campaigns`); err != nil {
		return 0, fmt.Errorf("failed to count campaigns: %w", err)
	}
	return total, nil
}

func (r *CampaignRepository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

// dbTime round-trips timestamps through drivers that store them as text.
type dbTime time.Time

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (t dbTime) Value() (driver.Value, error) {
	return time.Time(t).UTC().Format(time.RFC3339Nano), nil
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*t = dbTime(v)
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		*t = dbTime(time.Time{})
		return nil
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (t *dbTime) parse(text string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			*t = dbTime(parsed)
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", text)
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
