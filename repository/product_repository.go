package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jjrmrcly79/naturalezamistica/models"

	"gorm.io/gorm"
)

// ErrProductNotFound is returned by single-product operations when no row matches.
var ErrProductNotFound = errors.New("product not found")

// ProductRepository defines the catalog store operations.
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Product, error)
	// FindByIDs returns the products matching ids in a single query. Missing
	// ids are simply absent from the result.
	FindByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
	List(ctx context.Context, q models.ProductQuery) ([]models.Product, int64, error)
	ListKeywords(ctx context.Context) ([]string, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id int64) error
}

// GormProductRepository implements ProductRepository using GORM.
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository.
func NewGormProductRepository(db *gorm.DB) ProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	var products []models.Product
	if len(ids) == 0 {
		return products, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// List returns one page of products, newest first, and the total match count.
func (r *GormProductRepository) List(ctx context.Context, q models.ProductQuery) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Product{})

	if terms := strings.Fields(strings.ToLower(q.Search)); len(terms) > 0 {
		clauses := make([]string, 0, len(terms))
		args := make([]interface{}, 0, len(terms)*4)
		for _, term := range terms {
			pattern := likePattern(term)
			clauses = append(clauses,
				"(producto ILIKE ? OR descripcion_detallada ILIKE ? OR beneficios_usos ILIKE ? OR palabras_clave ILIKE ?)")
			args = append(args, pattern, pattern, pattern, pattern)
		}
		query = query.Where(strings.Join(clauses, " OR "), args...)
	}

	if category := strings.TrimSpace(q.Category); category != "" {
		query = query.Where("palabras_clave ILIKE ?", likePattern(category))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (q.Page - 1) * q.Limit
	if err := query.
		Order("id DESC").
		Offset(offset).
		Limit(q.Limit).
		Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// ListKeywords returns the non-null keyword strings, newest product first.
func (r *GormProductRepository) ListKeywords(ctx context.Context) ([]string, error) {
	var keywords []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("palabras_clave IS NOT NULL").
		Order("id DESC").
		Pluck("palabras_clave", &keywords).Error
	if err != nil {
		return nil, err
	}
	return keywords, nil
}

func (r *GormProductRepository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Update replaces every mutable column, including ones being set to NULL.
func (r *GormProductRepository) Update(ctx context.Context, product *models.Product) error {
	result := r.db.WithContext(ctx).
		Model(product).
		Select("*").
		Omit("id", "created_at").
		Updates(product)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *GormProductRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Product{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
