// Package facade is the typed CRUD layer over the backend. Every operation goes
// through the session-aware client, mirrors its outcome into a local Collection and
// reports it through the notifier.
package facade

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"reflect"
	"strings"

	"gestion-admin/client"
	"gestion-admin/models"
	"gestion-admin/notify"
	"gestion-admin/session"
	"gestion-admin/utils"
)

// DeleteStrategy says how an entity is removed on the backend.
type DeleteStrategy int

const (
	// SoftDeleteEndpoint posts to {id}/soft_delete/.
	SoftDeleteEndpoint DeleteStrategy = iota
	// StandardDelete sends an HTTP DELETE to {id}/.
	StandardDelete
)

// Placement says where a created record lands in the local collection.
type Placement int

const (
	Prepend Placement = iota
	Append
)

// Messages are the user-facing texts of one entity.
type Messages struct {
	Created, Updated, Deleted                            string
	LoadFailed, CreateFailed, UpdateFailed, DeleteFailed string
}

// Config describes one backend collection.
type Config[T any] struct {
	Path     string // collection path with trailing slash, e.g. /api/expenses/
	ID       func(T) int
	Update   string // http.MethodPatch or http.MethodPut
	Delete   DeleteStrategy
	Insert   Placement
	Messages Messages

	// RelistOnWrite reloads the whole collection after a successful write instead of
	// patching the local copy.
	RelistOnWrite bool
	// QuietNetworkErrors turns transport failures on List into an empty collection.
	QuietNetworkErrors bool
	// Prepare adjusts every record coming from the backend.
	Prepare func(T) T
	// AfterList runs after a successful List with the new contents.
	AfterList func(items []T)
	// AfterWrite runs after a successful Add, Update or Delete.
	AfterWrite func(ctx context.Context)
}

// caller runs one request and turns every failure into a notified error.
type caller struct {
	api  *client.Client
	note *notify.Notifier
}

// check inspects the outcome of a request. It returns ctx.Err() untouched when the
// caller gave up, so nothing is mirrored or notified for cancelled work.
func (c caller) check(ctx context.Context, resp *client.Response, err error, fallback string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		if errors.Is(err, session.ErrSessionExpired) {
			c.note.Error(err.Error())
			return err
		}
		log.Printf("facade: request failed: %v", err)
		c.note.Error(fallback)
		return fmt.Errorf("%s: %w", fallback, err)
	}
	if !resp.OK() {
		apiErr := client.NewAPIError(resp.StatusCode, resp.Body, fallback)
		c.note.Error(apiErr.Message)
		return apiErr
	}
	return nil
}

// call sends a request and decodes a successful body into out (when not nil).
func (c caller) call(ctx context.Context, method, path string, body any, fallback string, out any) error {
	resp, err := c.api.Do(ctx, method, path, body)
	if err := c.check(ctx, resp, err, fallback); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := resp.Decode(out); err != nil {
		c.note.Error(fallback)
		return err
	}
	return nil
}

// Resource is the facade of one entity.
type Resource[T any] struct {
	caller
	cfg   Config[T]
	items *Collection[T]
}

func NewResource[T any](api *client.Client, note *notify.Notifier, cfg Config[T]) *Resource[T] {
	if cfg.Update == "" {
		cfg.Update = http.MethodPatch
	}
	return &Resource[T]{
		caller: caller{api: api, note: note},
		cfg:    cfg,
		items:  NewCollection(cfg.ID),
	}
}

// Items is a snapshot of the local collection.
func (r *Resource[T]) Items() []T { return r.items.Snapshot() }

func (r *Resource[T]) Collection() *Collection[T] { return r.items }

func (r *Resource[T]) Find(id int) (T, bool) { return r.items.Find(id) }

func (r *Resource[T]) itemPath(id int) string {
	return fmt.Sprintf("%s%d/", r.cfg.Path, id)
}

func (r *Resource[T]) prepare(v T) T {
	if r.cfg.Prepare != nil {
		return r.cfg.Prepare(v)
	}
	return v
}

// List reloads the collection. A 403 means the role cannot see it: the collection is
// emptied and no error is reported.
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	resp, err := r.api.Do(ctx, http.MethodGet, r.cfg.Path, nil)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	switch {
	case errors.Is(err, session.ErrSessionExpired):
		r.items.Replace(nil)
		return nil, err
	case err != nil:
		if r.cfg.QuietNetworkErrors {
			log.Printf("facade: %s unreachable, showing empty list: %v", r.cfg.Path, err)
			r.items.Replace(nil)
			return []T{}, nil
		}
		r.note.Error(r.cfg.Messages.LoadFailed)
		return nil, fmt.Errorf("%s: %w", r.cfg.Messages.LoadFailed, err)
	case resp.StatusCode == http.StatusForbidden:
		r.items.Replace(nil)
		return []T{}, nil
	case resp.StatusCode == http.StatusUnauthorized:
		r.api.Session().Clear()
		r.items.Replace(nil)
		return nil, session.ErrSessionExpired
	case !resp.OK():
		r.note.Error(r.cfg.Messages.LoadFailed)
		return nil, &client.APIError{Status: resp.StatusCode, Message: r.cfg.Messages.LoadFailed, Body: resp.Body}
	}

	items, err := client.DecodeList[T](resp.Body)
	if err != nil {
		r.note.Error(r.cfg.Messages.LoadFailed)
		return nil, err
	}
	for i := range items {
		items[i] = r.prepare(items[i])
	}
	r.items.Replace(items)
	if r.cfg.AfterList != nil {
		r.cfg.AfterList(items)
	}
	return r.items.Snapshot(), nil
}

// Add creates a record. payload may be a struct (validated and normalized first),
// a *client.Form for uploads, or a map.
func (r *Resource[T]) Add(ctx context.Context, payload any) (T, error) {
	var created T
	body, err := preparePayload(payload)
	if err != nil {
		return created, err
	}
	if err := r.call(ctx, http.MethodPost, r.cfg.Path, body, r.cfg.Messages.CreateFailed, &created); err != nil {
		return created, err
	}
	created = r.prepare(created)
	if r.cfg.RelistOnWrite {
		_, _ = r.List(ctx)
	} else if r.cfg.Insert == Append {
		r.items.Append(created)
	} else {
		r.items.Prepend(created)
	}
	r.wrote(ctx, r.cfg.Messages.Created)
	return created, nil
}

// Update replaces or patches a record depending on the entity's update method.
func (r *Resource[T]) Update(ctx context.Context, id int, payload any) (T, error) {
	var updated T
	body, err := preparePayload(payload)
	if err != nil {
		return updated, err
	}
	if r.cfg.Update == http.MethodPatch {
		body = patchBody(body)
	}
	if err := r.call(ctx, r.cfg.Update, r.itemPath(id), body, r.cfg.Messages.UpdateFailed, &updated); err != nil {
		return updated, err
	}
	updated = r.prepare(updated)
	if r.cfg.RelistOnWrite {
		_, _ = r.List(ctx)
	} else {
		r.items.Put(updated)
	}
	r.wrote(ctx, r.cfg.Messages.Updated)
	return updated, nil
}

// Delete removes a record with the entity's deletion strategy.
func (r *Resource[T]) Delete(ctx context.Context, id int) error {
	resp, err := r.sendDelete(ctx, id)
	return r.deleted(ctx, id, resp, err)
}

func (r *Resource[T]) sendDelete(ctx context.Context, id int) (*client.Response, error) {
	if r.cfg.Delete == SoftDeleteEndpoint {
		return r.api.Do(ctx, http.MethodPost, r.itemPath(id)+"soft_delete/", nil)
	}
	return r.api.Do(ctx, http.MethodDelete, r.itemPath(id), nil)
}

func (r *Resource[T]) deleted(ctx context.Context, id int, resp *client.Response, err error) error {
	if err := r.check(ctx, resp, err, r.cfg.Messages.DeleteFailed); err != nil {
		return err
	}
	if r.cfg.RelistOnWrite {
		_, _ = r.List(ctx)
	} else {
		r.items.Remove(id)
	}
	r.wrote(ctx, r.cfg.Messages.Deleted)
	return nil
}

func (r *Resource[T]) wrote(ctx context.Context, msg string) {
	if r.cfg.AfterWrite != nil {
		r.cfg.AfterWrite(ctx)
	}
	r.note.Success(msg)
}

// action posts to {id}/<name>/ and mirrors the returned record.
func (r *Resource[T]) action(ctx context.Context, id int, name string, body any, fallback, success string) (T, error) {
	var out T
	if err := r.call(ctx, http.MethodPost, r.itemPath(id)+name+"/", body, fallback, &out); err != nil {
		return out, err
	}
	out = r.prepare(out)
	if r.cfg.ID(out) != 0 {
		r.items.Put(out)
	}
	if success != "" {
		r.note.Success(success)
	}
	return out, nil
}

// preparePayload validates struct payloads and returns a normalized copy. Violations
// are returned before anything is sent.
func preparePayload(payload any) (any, error) {
	switch payload.(type) {
	case nil, *client.Form, map[string]any, []byte:
		return payload, nil
	}
	rv := reflect.ValueOf(payload)
	var cp reflect.Value
	switch {
	case rv.Kind() == reflect.Struct:
		cp = reflect.New(rv.Type())
		cp.Elem().Set(rv)
	case rv.Kind() == reflect.Ptr && !rv.IsNil() && rv.Elem().Kind() == reflect.Struct:
		cp = reflect.New(rv.Elem().Type())
		cp.Elem().Set(rv.Elem())
	default:
		return payload, nil
	}
	out := cp.Interface()
	if err := models.Validate(out); err != nil {
		return nil, err
	}
	utils.NormalizePayload(out)
	return out, nil
}

// patchBody reduces an all-pointer DTO to the fields that are set.
func patchBody(body any) any {
	rv := reflect.ValueOf(body)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return body
	}
	t := rv.Elem().Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Type.Kind() != reflect.Ptr {
			return body
		}
	}
	return utils.PatchFromDTO(body)
}

// resolveMedia turns a relative media path into an absolute URL on the backend.
func resolveMedia(baseURL, path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/media/" + path
	}
	return strings.TrimRight(baseURL, "/") + path
}
