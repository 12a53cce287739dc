// Gallery and calendar read models.  Both are projections over work logs
// (and, for the calendar, pending tasks); role-based filtering happens in
// the handlers because the moderator view spans every owner.
package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// GalleryItem is one before/after pair in the shared gallery.
type GalleryItem struct {
	ID           uint64  `json:"id"`
	Fecha        string  `json:"fecha"`
	FotoAntes    string  `json:"foto_antes"`
	FotoDespues  string  `json:"foto_despues"`
	BonsaiNombre *string `json:"bonsai_nombre"`
	Especie      *string `json:"especie"`
	OwnerEmail   string  `json:"owner_email"`
}

// GalleryFilter narrows and orders the gallery listing.  Owner, when set,
// restricts results to one user's bonsais (the plain-user view).
type GalleryFilter struct {
	Owner     *uint64
	Species   string
	SortBy    string // "fecha" or "nombre"
	SortOrder string // "ASC" or "DESC"
}

// Gallery lists work logs that carry both photos.  Sort columns are mapped
// through a whitelist; anything unrecognized falls back to date descending.
func (r *WorkLogRepo) Gallery(ctx context.Context, f GalleryFilter) ([]GalleryItem, error) {
	q := `SELECT tb.id, tb.fecha, tb.foto_antes, tb.foto_despues,
		b.nombre, b.especie, u.email
	FROM trabajos_bonsai tb
	JOIN bonsais b ON tb.bonsai_id = b.id
	JOIN users u ON b.user_id = u.id
	WHERE tb.foto_antes IS NOT NULL AND tb.foto_despues IS NOT NULL`
	args := []any{}

	if f.Owner != nil {
		q += " AND b.user_id = ?"
		args = append(args, *f.Owner)
	}
	if f.Species != "" {
		q += " AND b.especie = ?"
		args = append(args, f.Species)
	}

	sortCols := map[string]string{"fecha": "tb.fecha", "nombre": "b.nombre"}
	col, ok := sortCols[f.SortBy]
	if !ok {
		col = "tb.fecha"
	}
	dir := "DESC"
	if f.SortOrder == "ASC" {
		dir = "ASC"
	}
	q += fmt.Sprintf(" ORDER BY %s %s", col, dir)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []GalleryItem{}
	for rows.Next() {
		var (
			g       GalleryItem
			fecha   sql.NullTime
			nombre  sql.NullString
			especie sql.NullString
		)
		if err := rows.Scan(&g.ID, &fecha, &g.FotoAntes, &g.FotoDespues, &nombre, &especie, &g.OwnerEmail); err != nil {
			return nil, err
		}
		if s := dateStr(fecha); s != nil {
			g.Fecha = *s
		}
		g.BonsaiNombre = strPtr(nombre)
		g.Especie = strPtr(especie)
		out = append(out, g)
	}
	return out, rows.Err()
}

// CalendarEvent is one entry in the unified calendar: completed work (green
// check) or an open due task (red warning).
type CalendarEvent struct {
	Start           *string `json:"start"`
	Title           string  `json:"title"`
	BackgroundColor string  `json:"backgroundColor"`
	TextColor       string  `json:"textColor"`
	URL             string  `json:"url"`
	OwnerID         uint64  `json:"-"`
}

type eventKind int

const (
	eventKindWork eventKind = iota
	eventKindTask
)

func newCalendarEvent(kind eventKind, fecha sql.NullTime, bonsaiNombre, label string, bonsaiID, ownerID uint64) CalendarEvent {
	ev := CalendarEvent{
		Start:     dateStr(fecha),
		TextColor: "#ffffff",
		URL:       fmt.Sprintf("/bonsai_detalle.html?id=%d", bonsaiID),
		OwnerID:   ownerID,
	}
	switch kind {
	case eventKindWork:
		ev.Title = fmt.Sprintf("✓ %s - %s", bonsaiNombre, label)
		ev.BackgroundColor = "#27ae60"
	case eventKindTask:
		ev.Title = fmt.Sprintf("! %s - %s", bonsaiNombre, label)
		ev.BackgroundColor = "#c0392b"
	}
	return ev
}

// CompletedEvents returns calendar entries for every recorded work log.
func (r *WorkLogRepo) CompletedEvents(ctx context.Context) ([]CalendarEvent, error) {
	const q = `SELECT tb.fecha, b.nombre, t.tipo_trabajo, b.id, b.user_id
	FROM trabajos_bonsai tb
	JOIN bonsais b ON tb.bonsai_id = b.id
	JOIN trabajos t ON tb.trabajo_id = t.id`

	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CalendarEvent{}
	for rows.Next() {
		var (
			fecha  sql.NullTime
			nombre sql.NullString
			tipo   string
			bID    uint64
			owner  uint64
		)
		if err := rows.Scan(&fecha, &nombre, &tipo, &bID, &owner); err != nil {
			return nil, err
		}
		out = append(out, newCalendarEvent(eventKindWork, fecha, nombre.String, tipo, bID, owner))
	}
	return out, rows.Err()
}
