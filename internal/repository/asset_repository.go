package repository

import (
	"database/sql"
	"errors"

	"pickcoin/internal/models"
)

// Ошибки репозитория активов
var (
	ErrAssetNotFound     = errors.New("asset not found")
	ErrCashAssetNotFound = errors.New("cash asset is not defined")
)

// AssetRepository - работа со справочником активов
type AssetRepository struct {
	db *sql.DB
}

// NewAssetRepository создает новый экземпляр репозитория
func NewAssetRepository(db *sql.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// GetAll возвращает все активы
func (r *AssetRepository) GetAll() ([]*models.Asset, error) {
	query := `
		SELECT id, symbol, name, is_cash, created_at
		FROM assets
		ORDER BY id`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []*models.Asset
	for rows.Next() {
		asset := &models.Asset{}
		err := rows.Scan(
			&asset.ID,
			&asset.Symbol,
			&asset.Name,
			&asset.IsCash,
			&asset.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return assets, nil
}

// GetByID возвращает актив по ID
func (r *AssetRepository) GetByID(id int64) (*models.Asset, error) {
	query := `
		SELECT id, symbol, name, is_cash, created_at
		FROM assets
		WHERE id = $1`

	asset := &models.Asset{}
	err := r.db.QueryRow(query, id).Scan(
		&asset.ID,
		&asset.Symbol,
		&asset.Name,
		&asset.IsCash,
		&asset.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssetNotFound
		}
		return nil, err
	}

	return asset, nil
}

// CashAssetID возвращает ID кассового актива.
// В схеме ровно один актив помечен is_cash (частичный уникальный индекс).
func (r *AssetRepository) CashAssetID() (int64, error) {
	query := `SELECT id FROM assets WHERE is_cash LIMIT 1`

	var id int64
	err := r.db.QueryRow(query).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrCashAssetNotFound
		}
		return 0, err
	}

	return id, nil
}
