package routes

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"filmoteca/internal/store"
)

var exportHeader = []string{
	"Id", "TmdbId", "Title", "OriginalTitle", "ReleaseDate", "Genres",
	"VoteAverage", "ReferenceCity", "Latitude", "Longitude",
}

func exportRow(m *store.Movie) []string {
	return []string{
		m.ID.String(),
		strconv.FormatInt(m.TMDBID, 10),
		m.Title,
		m.OriginalTitle,
		fmtDate(m.ReleaseDate),
		m.Genres,
		fmtFloat(m.VoteAverage),
		m.ReferenceCity,
		fmtFloat(m.Latitude),
		fmtFloat(m.Longitude),
	}
}

func fmtDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func fmtFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	movies, err := s.Store.List(r.Context())
	if err != nil {
		s.Log.Error().Err(err).Msg("export csv: list failed")
		http.Error(w, "could not load catalog", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="catalog.csv"`)

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		s.Log.Error().Err(err).Msg("export csv: write header failed")
		return
	}
	for i := range movies {
		if err := cw.Write(exportRow(&movies[i])); err != nil {
			s.Log.Error().Err(err).Msg("export csv: write row failed")
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		s.Log.Error().Err(err).Msg("export csv: flush failed")
	}
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	movies, err := s.Store.List(r.Context())
	if err != nil {
		s.Log.Error().Err(err).Msg("export xlsx: list failed")
		http.Error(w, "could not load catalog", http.StatusInternalServerError)
		return
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	const sheet = "Movies"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		s.Log.Error().Err(err).Msg("export xlsx: rename sheet failed")
		http.Error(w, "could not build spreadsheet", http.StatusInternalServerError)
		return
	}

	for col, name := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheet, cell, name)
	}
	for i := range movies {
		for col, val := range exportRow(&movies[i]) {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			_ = f.SetCellValue(sheet, cell, val)
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="catalog.xlsx"`)

	if err := f.Write(w); err != nil {
		s.Log.Error().Err(err).Msg("export xlsx: write failed")
	}
}
