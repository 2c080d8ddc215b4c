package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound        = errors.New("stall not found")
	ErrVersionConflict = errors.New("stall version conflict")
	ErrOwnerHasStall   = errors.New("owner already has a stall")
)

// MenuItem is one entry of the stall's ordered menu. The record is assembled
// from the parallel array columns on read and split back on write; nothing
// outside this package touches the array encoding.
type MenuItem struct {
	Name      string
	Price     float64
	Quantity  int32
	Available bool
	Image     string
	Recipe    string
}

// Stall is the aggregate root: one leasable unit with its menu and its raw
// ingredient ledger. Version is the optimistic-concurrency token; every
// conditional write checks it and bumps it.
type Stall struct {
	ID          int64
	OwnerUserID int64
	Name        string
	Description string
	Menu        []MenuItem
	Stocks      []string
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Stalls struct {
	DB *pgxpool.Pool
}

func NewStalls(db *pgxpool.Pool) *Stalls {
	return &Stalls{DB: db}
}

const stallColumns = `
	id, owner_user_id, name, coalesce(description, ''),
	menu_names, menu_prices, menu_quantities, menu_availability, menu_images, menu_recipes,
	stocks, version, created_at, updated_at
`

func (s *Stalls) GetStall(ctx context.Context, stallID int64) (*Stall, error) {
	row := s.DB.QueryRow(ctx, `select `+stallColumns+` from stalls where id = $1`, stallID)
	return scanStall(row)
}

func (s *Stalls) GetStallByOwner(ctx context.Context, ownerUserID int64) (*Stall, error) {
	row := s.DB.QueryRow(ctx, `select `+stallColumns+` from stalls where owner_user_id = $1`, ownerUserID)
	return scanStall(row)
}

func (s *Stalls) ListStalls(ctx context.Context) ([]Stall, error) {
	rows, err := s.DB.Query(ctx, `select `+stallColumns+` from stalls order by name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Stall, 0)
	for rows.Next() {
		stall, err := scanStall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *stall)
	}
	return out, rows.Err()
}

// CreateStall enforces one stall per owning user.
func (s *Stalls) CreateStall(ctx context.Context, ownerUserID int64, name string, description string) (*Stall, error) {
	var exists bool
	if err := s.DB.QueryRow(ctx, `select exists(select 1 from stalls where owner_user_id = $1)`, ownerUserID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrOwnerHasStall
	}

	row := s.DB.QueryRow(ctx, `
		insert into stalls (owner_user_id, name, description, menu_names, menu_prices, menu_quantities, menu_availability, menu_images, menu_recipes, stocks, version)
		values ($1, $2, $3, '{}', '{}', '{}', '{}', '{}', '{}', '{}', 1)
		returning `+stallColumns, ownerUserID, name, description)
	return scanStall(row)
}

func (s *Stalls) UpdateProfile(ctx context.Context, stallID int64, name string, description string) error {
	tag, err := s.DB.Exec(ctx, `
		update stalls set name = $1, description = $2, updated_at = now()
		where id = $3
	`, name, description, stallID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateMenu overwrites all menu arrays in one document write.
func (s *Stalls) UpdateMenu(ctx context.Context, stallID int64, version int64, menu []MenuItem) error {
	names, prices, quantities, availability, images, recipes := splitMenu(menu)
	tag, err := s.DB.Exec(ctx, `
		update stalls
		set menu_names = $1, menu_prices = $2, menu_quantities = $3,
		    menu_availability = $4, menu_images = $5, menu_recipes = $6,
		    version = version + 1, updated_at = now()
		where id = $7 and version = $8
	`, names, prices, quantities, availability, images, recipes, stallID, version)
	if err != nil {
		return err
	}
	return s.checkConditional(ctx, stallID, tag.RowsAffected())
}

// UpdateStocks persists the ledger and the caller-supplied menu quantities
// together, as a single conditional write.
func (s *Stalls) UpdateStocks(ctx context.Context, stallID int64, version int64, stocks []string, menuQuantities []int32) error {
	tag, err := s.DB.Exec(ctx, `
		update stalls
		set stocks = $1, menu_quantities = $2, version = version + 1, updated_at = now()
		where id = $3 and version = $4
	`, stocks, menuQuantities, stallID, version)
	if err != nil {
		return err
	}
	return s.checkConditional(ctx, stallID, tag.RowsAffected())
}

func (s *Stalls) UpdateInventory(ctx context.Context, stallID int64, version int64, stocks []string) error {
	tag, err := s.DB.Exec(ctx, `
		update stalls
		set stocks = $1, version = version + 1, updated_at = now()
		where id = $2 and version = $3
	`, stocks, stallID, version)
	if err != nil {
		return err
	}
	return s.checkConditional(ctx, stallID, tag.RowsAffected())
}

// UpdateAvailability persists the whole availability array as one field
// update, leaving the other menu arrays untouched.
func (s *Stalls) UpdateAvailability(ctx context.Context, stallID int64, version int64, availability []bool) error {
	tag, err := s.DB.Exec(ctx, `
		update stalls
		set menu_availability = $1, version = version + 1, updated_at = now()
		where id = $2 and version = $3
	`, availability, stallID, version)
	if err != nil {
		return err
	}
	return s.checkConditional(ctx, stallID, tag.RowsAffected())
}

func (s *Stalls) checkConditional(ctx context.Context, stallID int64, affected int64) error {
	if affected > 0 {
		return nil
	}
	var exists bool
	if err := s.DB.QueryRow(ctx, `select exists(select 1 from stalls where id = $1)`, stallID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrVersionConflict
}

func scanStall(row pgx.Row) (*Stall, error) {
	var (
		stall        Stall
		names        []string
		prices       []float64
		quantities   []int32
		availability []bool
		images       []string
		recipes      []string
	)
	err := row.Scan(
		&stall.ID, &stall.OwnerUserID, &stall.Name, &stall.Description,
		&names, &prices, &quantities, &availability, &images, &recipes,
		&stall.Stocks, &stall.Version, &stall.CreatedAt, &stall.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	stall.Menu = zipMenu(names, prices, quantities, availability, images, recipes)
	return &stall, nil
}

// zipMenu assembles menu records from the parallel array columns. The arrays
// stay aligned by convention only, so the record count follows menu_names and
// missing tails default to zero values.
func zipMenu(names []string, prices []float64, quantities []int32, availability []bool, images []string, recipes []string) []MenuItem {
	menu := make([]MenuItem, len(names))
	for i, name := range names {
		item := MenuItem{Name: name}
		if i < len(prices) {
			item.Price = prices[i]
		}
		if i < len(quantities) {
			item.Quantity = quantities[i]
		}
		if i < len(availability) {
			item.Available = availability[i]
		}
		if i < len(images) {
			item.Image = images[i]
		}
		if i < len(recipes) {
			item.Recipe = recipes[i]
		}
		menu[i] = item
	}
	return menu
}

func splitMenu(menu []MenuItem) (names []string, prices []float64, quantities []int32, availability []bool, images []string, recipes []string) {
	names = make([]string, len(menu))
	prices = make([]float64, len(menu))
	quantities = make([]int32, len(menu))
	availability = make([]bool, len(menu))
	images = make([]string, len(menu))
	recipes = make([]string, len(menu))
	for i, item := range menu {
		names[i] = item.Name
		prices[i] = item.Price
		quantities[i] = item.Quantity
		availability[i] = item.Available
		images[i] = item.Image
		recipes[i] = item.Recipe
	}
	return
}

// MenuNames returns the ordered name array for capacity calculations.
func (s *Stall) MenuNames() []string {
	names := make([]string, len(s.Menu))
	for i, item := range s.Menu {
		names[i] = item.Name
	}
	return names
}

// MenuRecipes returns the recipe array aligned to MenuNames.
func (s *Stall) MenuRecipes() []string {
	recipes := make([]string, len(s.Menu))
	for i, item := range s.Menu {
		recipes[i] = item.Recipe
	}
	return recipes
}

// MenuQuantities returns the quantity array aligned to MenuNames.
func (s *Stall) MenuQuantities() []int32 {
	quantities := make([]int32, len(s.Menu))
	for i, item := range s.Menu {
		quantities[i] = item.Quantity
	}
	return quantities
}
