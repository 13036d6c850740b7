package meter

import (
	"context"
	"errors"
	"fmt"

	"github.com/Alp4ka/keyset"
	"github.com/Alp4ka/keyset/gormadapter"
	"github.com/Alp4ka/keyset/pgxadapter"
	"github.com/jackc/pgx/v5"
	"gorm.io/gorm"
)

var (
	ErrMarkerNotFound    = errors.New("marker meter not found")
	ErrConflictingMarker = errors.New("marker token and marker columns are mutually exclusive")
	ErrIncompleteMarker  = errors.New("marker needs both counter name and resource id")
)

var _sortColumns = []string{"counter_name", "resource_id"}

var _rowGetters = keyset.Getters[Row]{
	"counter_name": func(r Row) any { return r.CounterName },
	"resource_id":  func(r Row) any { return r.ResourceID },
}

// _columnMapping resolves sort keys against the latest-meter query built by
// latest.
var _columnMapping = keyset.ColumnMapping{
	"counter_name": "m.counter_name",
	"resource_id":  "m.resource_id",
}

// _latestSQL is the raw PostgreSQL form of latest.
const _latestSQL = `SELECT m.counter_name, m.counter_type, m.counter_unit,
       r.id AS resource_id, r.project_id, r.user_id
FROM meter AS m
JOIN (SELECT MAX(id) AS id FROM meter GROUP BY resource_id, counter_name) AS latest ON m.id = latest.id
JOIN resource AS r ON r.id = m.resource_id`

// SortSpec returns the listing order: counter name, then resource id, both
// descending.
func SortSpec() (keyset.SortSpec, error) {
	return keyset.NewSortSpec(_sortColumns, keyset.SpecOptions{Direction: keyset.DirectionDESC})
}

// ListRequest selects one page of the listing. The page starts after the
// marker given either as a token of a previous page or as the
// (CounterName, ResourceID) pair of a listed row; without a marker the first
// page is returned.
type ListRequest struct {
	// Limit is the page size. keyset.NoLimit lists everything.
	Limit       int
	Token       string
	CounterName string
	ResourceID  string
}

// Page is one page of the listing. NextToken is empty on the last page.
type Page struct {
	Rows      []Row  `json:"rows"`
	NextToken string `json:"next_token,omitempty"`
}

func (r ListRequest) validate() error {
	hasColumns := r.CounterName != "" || r.ResourceID != ""
	if r.Token != "" && hasColumns {
		return ErrConflictingMarker
	}

	if hasColumns && (r.CounterName == "" || r.ResourceID == "") {
		return ErrIncompleteMarker
	}

	return nil
}

func (r ListRequest) hasMarkerRow() bool {
	return r.CounterName != "" && r.ResourceID != ""
}

// latest selects the newest meter of every (resource_id, counter_name) pair
// joined with its resource.
//
//	SELECT ... FROM (SELECT meter.* FROM meter JOIN
//	  (SELECT MAX(id) AS id FROM meter GROUP BY resource_id, counter_name) AS latest
//	  ON meter.id = latest.id) AS m
//	JOIN resource ON resource.id = m.resource_id
func latest(tx *gorm.DB) *gorm.DB {
	latestIDs := tx.Model(&Meter{}).
		Select("MAX(id) AS id").
		Group("resource_id, counter_name")

	meters := tx.Model(&Meter{}).
		Select("meter.*").
		Joins("JOIN (?) AS latest ON meter.id = latest.id", latestIDs)

	return tx.Table("(?) AS m", meters).
		Select("m.counter_name, m.counter_type, m.counter_unit, " +
			"resource.id AS resource_id, resource.project_id, resource.user_id").
		Joins("JOIN resource ON resource.id = m.resource_id")
}

// List returns one page of the latest meters through GORM.
func List(ctx context.Context, tx *gorm.DB, req ListRequest) (Page, error) {
	if err := req.validate(); err != nil {
		return Page{}, err
	}

	tx = tx.WithContext(ctx)

	return list(ctx, req,
		func() (Row, error) {
			var row Row
			err := latest(tx).
				Where("m.counter_name = ? AND m.resource_id = ?", req.CounterName, req.ResourceID).
				Take(&row).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return Row{}, fmt.Errorf("%w: %s/%s", ErrMarkerNotFound, req.CounterName, req.ResourceID)
			}

			return row, err
		},
		func() (keyset.QueryAdapter[Row], error) {
			adapter, err := gormadapter.New[Row](latest(tx), gormadapter.Options{ColumnMapping: _columnMapping})
			if err != nil {
				return nil, err
			}

			return adapter, nil
		},
	)
}

// ListRaw returns one page of the latest meters with raw SQL through pgx.
// It works on PostgreSQL only.
func ListRaw(ctx context.Context, q pgxadapter.Querier, req ListRequest) (Page, error) {
	if err := req.validate(); err != nil {
		return Page{}, err
	}

	return list(ctx, req,
		func() (Row, error) {
			rows, err := q.Query(ctx,
				"SELECT * FROM ("+_latestSQL+") AS page WHERE counter_name = $1 AND resource_id = $2 LIMIT 1",
				req.CounterName, req.ResourceID,
			)
			if err != nil {
				return Row{}, err
			}

			row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[Row])
			if errors.Is(err, pgx.ErrNoRows) {
				return Row{}, fmt.Errorf("%w: %s/%s", ErrMarkerNotFound, req.CounterName, req.ResourceID)
			}

			return row, err
		},
		func() (keyset.QueryAdapter[Row], error) {
			return pgxadapter.New[Row](q, _latestSQL, nil, pgxadapter.Options{Columns: _sortColumns}), nil
		},
	)
}

func list(
	ctx context.Context,
	req ListRequest,
	markerRow func() (Row, error),
	newAdapter func() (keyset.QueryAdapter[Row], error),
) (Page, error) {
	spec, err := SortSpec()
	if err != nil {
		return Page{}, err
	}

	var marker keyset.Marker
	switch {
	case req.Token != "":
		marker, err = keyset.DecodeMarker(req.Token)
		if err != nil {
			return Page{}, err
		}
	case req.hasMarkerRow():
		row, err := markerRow()
		if err != nil {
			return Page{}, err
		}

		marker, err = keyset.MarkerOf(spec, row, _rowGetters)
		if err != nil {
			return Page{}, err
		}
	}

	pager := keyset.NewPager().
		WithSort(spec.Keys()...).
		WithMarker(marker)
	if req.Limit == keyset.NoLimit {
		pager = pager.WithUnlimited()
	} else {
		pager = pager.WithLimit(req.Limit).WithLookahead()
	}

	adapter, err := newAdapter()
	if err != nil {
		return Page{}, err
	}

	res, err := keyset.Paginate(ctx, pager, adapter, _rowGetters)
	if err != nil {
		return Page{}, err
	}

	token, err := res.NextMarker.Token(spec)
	if err != nil {
		return Page{}, err
	}

	return Page{Rows: res.Items, NextToken: token}, nil
}
