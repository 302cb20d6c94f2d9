package repositories

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"kammalabel/internal/models"
)

type CatalogRepository interface {
	ListCategories() ([]*models.Category, error)
	GetCategory(id int) (*models.Category, error)
	ListColors(ids []int) ([]*models.Color, error)
	ListMaterials(ids []int) ([]*models.Material, error)
	PriceRange(categoryID int) (models.PriceRange, error)
	ListProducts(filter models.ProductFilter) ([]*models.Product, error)
	GetProduct(id int) (*models.Product, error)
	GetInstance(id int) (*models.ProductInstance, error)
	DecrementStock(instanceID, count int) error
}

type catalogRepository struct {
	DB *sql.DB
}

func NewCatalogRepository(db *sql.DB) CatalogRepository {
	return &catalogRepository{DB: db}
}

func (r *catalogRepository) ListCategories() ([]*models.Category, error) {
	rows, err := r.DB.Query(`SELECT id, name, gender, colors, materials FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("categories list: %w", err)
	}
	defer rows.Close()

	var out []*models.Category
	for rows.Next() {
		c := &models.Category{}
		var colors, materials pq.Int64Array
		if err := rows.Scan(&c.ID, &c.Name, &c.Gender, &colors, &materials); err != nil {
			return nil, fmt.Errorf("categories scan: %w", err)
		}
		c.Colors = toIntSlice(colors)
		c.Materials = toIntSlice(materials)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *catalogRepository) GetCategory(id int) (*models.Category, error) {
	c := &models.Category{}
	var colors, materials pq.Int64Array
	err := r.DB.QueryRow(
		`SELECT id, name, gender, colors, materials FROM categories WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Gender, &colors, &materials)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("category get: %w", err)
	}
	c.Colors = toIntSlice(colors)
	c.Materials = toIntSlice(materials)
	return c, nil
}

func (r *catalogRepository) ListColors(ids []int) ([]*models.Color, error) {
	rows, err := r.DB.Query(
		`SELECT id, name, color FROM colors WHERE id = ANY($1) ORDER BY id`, pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("colors list: %w", err)
	}
	defer rows.Close()

	var out []*models.Color
	for rows.Next() {
		c := &models.Color{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Hex); err != nil {
			return nil, fmt.Errorf("colors scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *catalogRepository) ListMaterials(ids []int) ([]*models.Material, error) {
	rows, err := r.DB.Query(
		`SELECT id, name FROM materials WHERE id = ANY($1) ORDER BY id`, pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("materials list: %w", err)
	}
	defer rows.Close()

	var out []*models.Material
	for rows.Next() {
		m := &models.Material{}
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("materials scan: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *catalogRepository) PriceRange(categoryID int) (models.PriceRange, error) {
	var pr models.PriceRange
	err := r.DB.QueryRow(
		`SELECT COALESCE(MIN(price),0), COALESCE(MAX(price),0) FROM products WHERE category_id = $1`,
		categoryID,
	).Scan(&pr.Min, &pr.Max)
	if err != nil {
		return pr, fmt.Errorf("price range: %w", err)
	}
	return pr, nil
}

// ListProducts — динамический WHERE по фильтру; параметры всегда через placeholder.
func (r *catalogRepository) ListProducts(filter models.ProductFilter) ([]*models.Product, error) {
	q := strings.Builder{}
	q.WriteString(`
		SELECT DISTINCT p.id, p.name, p.category_id, p.rate, COALESCE(p.description,''),
			COALESCE(p.image,''), p.price, p.material_id, m.name
		FROM products p
		JOIN materials m ON m.id = p.material_id
	`)
	var (
		conds []string
		args  []interface{}
	)
	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	needInstances := len(filter.Colors) > 0 || filter.HasStock != nil
	if needInstances {
		q.WriteString(` JOIN product_instances pi ON pi.product_id = p.id`)
	}
	if filter.CategoryID > 0 {
		conds = append(conds, "p.category_id = "+next(filter.CategoryID))
	}
	if filter.MinPrice > 0 {
		conds = append(conds, "p.price >= "+next(filter.MinPrice))
	}
	if filter.MaxPrice > 0 {
		conds = append(conds, "p.price <= "+next(filter.MaxPrice))
	}
	if len(filter.Colors) > 0 {
		conds = append(conds, "pi.color_id = ANY("+next(pq.Array(filter.Colors))+")")
	}
	if len(filter.Materials) > 0 {
		conds = append(conds, "p.material_id = ANY("+next(pq.Array(filter.Materials))+")")
	}
	if filter.HasStock != nil {
		if *filter.HasStock {
			conds = append(conds, "pi.stock > 0")
		} else {
			conds = append(conds, "pi.stock <= 0")
		}
	}
	if filter.Search != "" {
		conds = append(conds, "p.name ILIKE "+next("%"+filter.Search+"%"))
	}
	if len(conds) > 0 {
		q.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	q.WriteString(" ORDER BY p.id")

	rows, err := r.DB.Query(q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("products list: %w", err)
	}
	defer rows.Close()

	var out []*models.Product
	for rows.Next() {
		p := &models.Product{Material: &models.Material{}}
		if err := rows.Scan(
			&p.ID, &p.Name, &p.CategoryID, &p.Rate, &p.Description,
			&p.Image, &p.Price, &p.MaterialID, &p.Material.Name,
		); err != nil {
			return nil, fmt.Errorf("products scan: %w", err)
		}
		p.Material.ID = p.MaterialID
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *catalogRepository) GetProduct(id int) (*models.Product, error) {
	p := &models.Product{Material: &models.Material{}}
	err := r.DB.QueryRow(`
		SELECT p.id, p.name, p.category_id, p.rate, COALESCE(p.description,''),
			COALESCE(p.image,''), p.price, p.material_id, m.name
		FROM products p
		JOIN materials m ON m.id = p.material_id
		WHERE p.id = $1
	`, id).Scan(
		&p.ID, &p.Name, &p.CategoryID, &p.Rate, &p.Description,
		&p.Image, &p.Price, &p.MaterialID, &p.Material.Name,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("product get: %w", err)
	}
	p.Material.ID = p.MaterialID

	instRows, err := r.DB.Query(`
		SELECT pi.id, pi.product_id, pi.color_id, pi.size_id, pi.stock, pi.sku,
			c.name, c.color, s.name
		FROM product_instances pi
		JOIN colors c ON c.id = pi.color_id
		JOIN sizes s ON s.id = pi.size_id
		WHERE pi.product_id = $1
		ORDER BY pi.id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("product instances: %w", err)
	}
	defer instRows.Close()
	for instRows.Next() {
		inst := &models.ProductInstance{Color: &models.Color{}, Size: &models.Size{}}
		if err := instRows.Scan(
			&inst.ID, &inst.ProductID, &inst.ColorID, &inst.SizeID, &inst.Stock, &inst.SKU,
			&inst.Color.Name, &inst.Color.Hex, &inst.Size.Name,
		); err != nil {
			return nil, fmt.Errorf("product instances scan: %w", err)
		}
		inst.Color.ID = inst.ColorID
		inst.Size.ID = inst.SizeID
		p.Instances = append(p.Instances, inst)
	}
	if err := instRows.Err(); err != nil {
		return nil, err
	}

	albumRows, err := r.DB.Query(
		`SELECT id, product_id, file FROM product_images WHERE product_id = $1 ORDER BY id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("product album: %w", err)
	}
	defer albumRows.Close()
	for albumRows.Next() {
		var img models.ProductImage
		if err := albumRows.Scan(&img.ID, &img.ProductID, &img.File); err != nil {
			return nil, fmt.Errorf("product album scan: %w", err)
		}
		p.Album = append(p.Album, img)
	}
	return p, albumRows.Err()
}

// GetInstance — вариант вместе с товаром (цена нужна для корзины и заказа).
func (r *catalogRepository) GetInstance(id int) (*models.ProductInstance, error) {
	inst := &models.ProductInstance{Product: &models.Product{}, Color: &models.Color{}, Size: &models.Size{}}
	err := r.DB.QueryRow(`
		SELECT pi.id, pi.product_id, pi.color_id, pi.size_id, pi.stock, pi.sku,
			p.name, p.price, p.category_id,
			c.name, c.color, s.name
		FROM product_instances pi
		JOIN products p ON p.id = pi.product_id
		JOIN colors c ON c.id = pi.color_id
		JOIN sizes s ON s.id = pi.size_id
		WHERE pi.id = $1
	`, id).Scan(
		&inst.ID, &inst.ProductID, &inst.ColorID, &inst.SizeID, &inst.Stock, &inst.SKU,
		&inst.Product.Name, &inst.Product.Price, &inst.Product.CategoryID,
		&inst.Color.Name, &inst.Color.Hex, &inst.Size.Name,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("instance get: %w", err)
	}
	inst.Product.ID = inst.ProductID
	inst.Color.ID = inst.ColorID
	inst.Size.ID = inst.SizeID
	return inst, nil
}

// DecrementStock — атомарно, с защитой от ухода в минус.
func (r *catalogRepository) DecrementStock(instanceID, count int) error {
	res, err := r.DB.Exec(
		`UPDATE product_instances SET stock = stock - $1 WHERE id = $2 AND stock >= $1`,
		count, instanceID,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement stock: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("decrement stock: insufficient stock for instance %d", instanceID)
	}
	return nil
}

func toIntSlice(arr pq.Int64Array) []int {
	out := make([]int, 0, len(arr))
	for _, v := range arr {
		out = append(out, int(v))
	}
	return out
}
