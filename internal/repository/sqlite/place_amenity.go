package sqlite

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/sakif/listings/internal/model"
)

const placeAmenitiesTable = "place_amenities"

// placeAmenities stores the place/amenity join rows. The (place_id,
// amenity_id) primary key makes each fact unique.
type placeAmenities struct {
	q querier
}

// Link inserts the pair, or does nothing if it already exists:
//
//	INSERT OR IGNORE INTO `place_amenities` ... ON CONFLICT DO NOTHING
func (p *placeAmenities) Link(ctx context.Context, placeID, amenityID string) error {
	query, args, err := dialect.Insert(placeAmenitiesTable).
		Rows(goqu.Record{
			"place_id":   placeID,
			"amenity_id": amenityID,
			"created_at": model.Now(),
		}).
		OnConflict(goqu.DoNothing()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("sqlite: building place amenity link: %w", err)
	}

	if _, err := p.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("sqlite: linking amenity %s to place %s: %w", amenityID, placeID, err)
	}
	return nil
}

func (p *placeAmenities) AmenityIDs(ctx context.Context, placeID string) ([]string, error) {
	query, args, err := dialect.From(placeAmenitiesTable).
		Select("amenity_id").
		Where(goqu.C("place_id").Eq(placeID)).
		Order(goqu.C("amenity_id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building place amenity select: %w", err)
	}

	rows, err := p.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing amenities of place %s: %w", placeID, err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning amenity id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating amenity ids: %w", err)
	}
	return ids, nil
}

// UnlinkPlace removes every link of the place. Deleting the place row also
// cascades to its links.
func (p *placeAmenities) UnlinkPlace(ctx context.Context, placeID string) error {
	query, args, err := dialect.Delete(placeAmenitiesTable).
		Where(goqu.C("place_id").Eq(placeID)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("sqlite: building place amenity delete: %w", err)
	}

	if _, err := p.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("sqlite: unlinking amenities of place %s: %w", placeID, err)
	}
	return nil
}
