package store

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Record is one document of a collection (products, invoices, ...). The payload is
// kept as JSON so every collection shares the table.
type Record struct {
	ID         uint   `gorm:"primaryKey"`
	Collection string `gorm:"index;size:64;not null"`
	Data       datatypes.JSON
	Deleted    bool `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Doc is the decoded payload of a record, with "id" filled in.
type Doc map[string]any

func (r Record) Doc() (Doc, error) {
	d := Doc{}
	if len(r.Data) > 0 {
		if err := json.Unmarshal(r.Data, &d); err != nil {
			return nil, fmt.Errorf("record %d: %w", r.ID, err)
		}
	}
	d["id"] = int(r.ID)
	return d, nil
}

// ToDoc converts any JSON-marshalable value into a Doc.
func ToDoc(v any) (Doc, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	d := Doc{}
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return d, nil
}

func (d Doc) String(key string) string {
	s, _ := d[key].(string)
	return s
}

func (d Doc) Float(key string) float64 {
	switch v := d[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	}
	return 0
}

func (d Doc) Int(key string) int { return int(d.Float(key)) }

func (d Doc) Bool(key string) bool {
	b, _ := d[key].(bool)
	return b
}

// List returns the objects stored under key; anything else is skipped.
func (d Doc) List(key string) []Doc {
	raw, _ := d[key].([]any)
	out := make([]Doc, 0, len(raw))
	for _, v := range raw {
		switch m := v.(type) {
		case map[string]any:
			out = append(out, Doc(m))
		case Doc:
			out = append(out, m)
		}
	}
	return out
}

// SetList stores docs under key in a form that survives a JSON round trip.
func (d Doc) SetList(key string, docs []Doc) {
	raw := make([]any, len(docs))
	for i, v := range docs {
		raw[i] = map[string]any(v)
	}
	d[key] = raw
}

func encode(d Doc) (datatypes.JSON, error) {
	clean := make(Doc, len(d))
	for k, v := range d {
		if k != "id" {
			clean[k] = v
		}
	}
	raw, err := json.Marshal(clean)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// List returns the live documents of a collection, oldest first.
func List(db *gorm.DB, collection string) ([]Doc, error) {
	var recs []Record
	if err := db.Where("collection = ? AND deleted = ?", collection, false).Order("id").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]Doc, 0, len(recs))
	for _, r := range recs {
		d, err := r.Doc()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Get loads a live document. A missing or soft-deleted one is gorm.ErrRecordNotFound.
func Get(db *gorm.DB, collection string, id int) (Doc, error) {
	var r Record
	err := db.Where("collection = ? AND deleted = ?", collection, false).Take(&r, id).Error
	if err != nil {
		return nil, err
	}
	return r.Doc()
}

func Create(db *gorm.DB, collection string, d Doc) (Doc, error) {
	data, err := encode(d)
	if err != nil {
		return nil, err
	}
	r := Record{Collection: collection, Data: data}
	if err := db.Create(&r).Error; err != nil {
		return nil, err
	}
	d["id"] = int(r.ID)
	return d, nil
}

// Save overwrites the payload of an existing document.
func Save(db *gorm.DB, collection string, d Doc) error {
	data, err := encode(d)
	if err != nil {
		return err
	}
	res := db.Model(&Record{}).
		Where("id = ? AND collection = ? AND deleted = ?", d.Int("id"), collection, false).
		Updates(map[string]any{"data": data, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func SoftDelete(db *gorm.DB, collection string, id int) error {
	res := db.Model(&Record{}).
		Where("id = ? AND collection = ? AND deleted = ?", id, collection, false).
		Update("deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func Delete(db *gorm.DB, collection string, id int) error {
	res := db.Where("id = ? AND collection = ?", id, collection).Delete(&Record{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Migrate creates the emulator tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Account{}, &RefreshToken{}, &Record{}); err != nil {
		return fmt.Errorf("mockapi automigrate failed: %w", err)
	}
	return nil
}
