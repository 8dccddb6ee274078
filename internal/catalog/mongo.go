package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
)

// Mongo reads one collection per category.
type Mongo struct {
	db *mongo.Database
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{db: db}
}

func (m *Mongo) Categories(ctx context.Context) ([]string, error) {
	names, err := m.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !IsReserved(n) {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *Mongo) exists(ctx context.Context, category string) (bool, error) {
	if category == "" || IsReserved(category) {
		return false, nil
	}
	names, err := m.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: category}})
	if err != nil {
		return false, fmt.Errorf("list collections: %w", err)
	}
	return len(names) > 0, nil
}

func (m *Mongo) Products(ctx context.Context, category string, page int) (Page, error) {
	ok, err := m.exists(ctx, category)
	if err != nil {
		return Page{}, err
	}
	if !ok {
		return Page{}, fmt.Errorf("%w: %q", ErrCategoryNotFound, category)
	}

	coll := m.db.Collection(category)
	total, err := coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return Page{}, fmt.Errorf("count %s: %w", category, err)
	}

	page, offset := NormalizePage(page)
	cur, err := coll.Find(ctx, bson.D{}, options.Find().SetSkip(int64(offset)).SetLimit(PageSize))
	if err != nil {
		return Page{}, fmt.Errorf("find %s: %w", category, err)
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return Page{}, fmt.Errorf("decode %s: %w", category, err)
	}

	out := Page{Products: make([]cart.Product, 0, len(docs)), Page: page, Total: int(total), TotalPages: totalPages(int(total))}
	for _, d := range docs {
		out.Products = append(out.Products, Normalize(category, RecordFromDocument(d)))
	}
	return out, nil
}

func (m *Mongo) Product(ctx context.Context, category, productID string) (cart.Product, error) {
	ok, err := m.exists(ctx, category)
	if err != nil {
		return cart.Product{}, err
	}
	if !ok {
		return cart.Product{}, fmt.Errorf("%w: %q", ErrCategoryNotFound, category)
	}

	ids := []any{productID}
	if oid, err := primitive.ObjectIDFromHex(productID); err == nil {
		ids = append(ids, oid)
	}

	var doc bson.M
	err = m.db.Collection(category).FindOne(ctx, bson.M{"_id": bson.M{"$in": ids}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return cart.Product{}, fmt.Errorf("%w: %q", ErrProductNotFound, productID)
	}
	if err != nil {
		return cart.Product{}, fmt.Errorf("find product: %w", err)
	}
	return Normalize(category, RecordFromDocument(doc)), nil
}

// Replace drops the category collection and inserts records.
func (m *Mongo) Replace(ctx context.Context, category string, records []Record) error {
	if category == "" {
		return ErrMissingCategory
	}
	if IsReserved(category) {
		return fmt.Errorf("%q is reserved", category)
	}
	coll := m.db.Collection(category)
	if err := coll.Drop(ctx); err != nil {
		return fmt.Errorf("drop %s: %w", category, err)
	}
	if len(records) == 0 {
		return m.db.CreateCollection(ctx, category)
	}
	docs := make([]any, 0, len(records))
	for _, r := range records {
		price, _ := r.Price.Float64()
		doc := bson.M{
			"name":        r.Name,
			"price":       price,
			"image":       r.Image,
			"brand":       r.Brand,
			"description": r.Description,
		}
		if r.ID != "" {
			doc["_id"] = r.ID
		}
		if r.Img != "" {
			doc["img"] = r.Img
		}
		docs = append(docs, doc)
	}
	if _, err := coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert %s: %w", category, err)
	}
	return nil
}

// RecordFromDocument reads the loosely typed fields of a stored product.
// A price that is not numeric reads as zero.
func RecordFromDocument(d bson.M) Record {
	return Record{
		ID:          idString(d["_id"]),
		Name:        str(d["name"]),
		Price:       price(d["price"]),
		Image:       str(d["image"]),
		Img:         str(d["img"]),
		Brand:       str(d["brand"]),
		Description: str(d["description"]),
	}
}

func idString(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func price(v any) decimal.Decimal {
	switch p := v.(type) {
	case float64:
		return decimal.NewFromFloat(p)
	case float32:
		return decimal.NewFromFloat32(p)
	case int32:
		return decimal.NewFromInt32(p)
	case int64:
		return decimal.NewFromInt(p)
	case int:
		return decimal.NewFromInt(int64(p))
	case primitive.Decimal128:
		d, err := decimal.NewFromString(p.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}
