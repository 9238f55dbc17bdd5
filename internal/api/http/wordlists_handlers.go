package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Sardorious/test-me/internal/rbac"
	"github.com/Sardorious/test-me/internal/users"
	"github.com/Sardorious/test-me/internal/vocab"
)

type uploadWordListReq struct {
	Level    string       `json:"level"`
	UnitID   string       `json:"unit_id,omitempty"`   // use an existing unit
	UnitName string       `json:"unit_name,omitempty"` // or create one (auto-numbered)
	Name     string       `json:"name"`
	Words    []vocab.Word `json:"words"`
}

// POST /wordlists
//
// Accepts either multipart form-data (fields level/unit_id/unit_name/name
// plus file=, CSV or JSON sniffed by first byte) or a raw JSON body.
func UploadWordListHandler(st vocab.Store, ust users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req uploadWordListReq
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/form-data") {
			req.Level = strings.TrimSpace(r.FormValue("level"))
			req.UnitID = strings.TrimSpace(r.FormValue("unit_id"))
			req.UnitName = strings.TrimSpace(r.FormValue("unit_name"))
			req.Name = strings.TrimSpace(r.FormValue("name"))

			f, _, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "file required", 400)
				return
			}
			defer f.Close()
			// sniff simple CSV vs JSON by the first byte
			buf := make([]byte, 1)
			if _, err := f.Read(buf); err != nil {
				http.Error(w, "empty file", 400)
				return
			}
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				http.Error(w, "unreadable file", 400)
				return
			}
			if buf[0] == '[' || buf[0] == '{' {
				if err := json.NewDecoder(f).Decode(&req.Words); err != nil {
					http.Error(w, "bad json", 400)
					return
				}
			} else {
				ws, err := parseWordsCSV(f)
				if err != nil {
					http.Error(w, "bad csv: "+err.Error(), 400)
					return
				}
				req.Words = ws
			}
		} else {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "expected JSON body or multipart file", 400)
				return
			}
		}

		if req.Name == "" {
			http.Error(w, "name required", 400)
			return
		}
		if len(req.Words) == 0 {
			http.Error(w, "no words given", 400)
			return
		}

		ctx := r.Context()
		unitID := req.UnitID
		if unitID == "" {
			if req.UnitName == "" {
				http.Error(w, "unit_id or unit_name required", 400)
				return
			}
			unit, err := st.CreateUnit(ctx, req.Level, req.UnitName, 0)
			if err != nil {
				writeErr(w, err)
				return
			}
			unitID = unit.ID
		} else {
			if _, err := st.GetUnit(ctx, unitID); err != nil {
				writeErr(w, err)
				return
			}
		}

		// The bootstrap admin has no users row; such lists stay unowned.
		ownerID := ""
		if u, err := ust.GetByID(ctx, rbac.SubjectFromContext(ctx)); err == nil {
			ownerID = u.ID
		}

		wl, err := st.CreateWordList(ctx, vocab.WordList{UnitID: unitID, OwnerID: ownerID, Name: req.Name}, req.Words)
		if err != nil {
			writeErr(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"unit_id":      unitID,
			"word_list_id": wl.ID,
			"words":        len(req.Words),
		})
	}
}

// GET /levels/{level}/units
func ListUnitsHandler(st vocab.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		level := strings.TrimSpace(chi.URLParam(r, "level"))
		units, err := st.Units(r.Context(), level)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(units)
	}
}

// GET /units/{unitID}/wordlists
func ListWordListsHandler(st vocab.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unitID := strings.TrimSpace(chi.URLParam(r, "unitID"))
		lists, err := st.WordLists(r.Context(), unitID)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(lists)
	}
}

// DELETE /units/{unitID}  (word lists and words go with it)
func DeleteUnitHandler(st vocab.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unitID := strings.TrimSpace(chi.URLParam(r, "unitID"))
		if err := st.DeleteUnit(r.Context(), unitID); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /wordlists/{wordListID}/words
func ListWordsHandler(st vocab.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wordListID := strings.TrimSpace(chi.URLParam(r, "wordListID"))
		words, err := st.Words(r.Context(), wordListID)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(words)
	}
}

// DELETE /wordlists/{wordListID}
func DeleteWordListHandler(st vocab.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wordListID := strings.TrimSpace(chi.URLParam(r, "wordListID"))
		if err := st.DeleteWordList(r.Context(), wordListID); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func parseWordsCSV(r io.Reader) ([]vocab.Word, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, k := range []string{"turkish", "uzbek"} {
		if _, ok := idx[k]; !ok {
			return nil, errors.New("missing column: " + k)
		}
	}
	var words []vocab.Word
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		word := vocab.Word{
			Turkish: strings.TrimSpace(rec[idx["turkish"]]),
			Uzbek:   strings.TrimSpace(rec[idx["uzbek"]]),
		}
		if i, ok := idx["example_sentence"]; ok && i < len(rec) {
			word.ExampleSentence = strings.TrimSpace(rec[i])
		}
		if i, ok := idx["note"]; ok && i < len(rec) {
			word.Note = strings.TrimSpace(rec[i])
		}
		words = append(words, word)
	}
	return words, nil
}
