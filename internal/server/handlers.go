package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"shelfkeeper/internal/chkindex"
	"shelfkeeper/internal/dupes"
	"shelfkeeper/internal/store"
	"shelfkeeper/internal/util"

	"github.com/gorilla/mux"
)

// fileEntry is one group member in a duplicate listing
type fileEntry struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	FilePath    string `json:"file_path"`
	FileSize    int64  `json:"file_size"`
	Format      string `json:"format"`
	IsKeeper    bool   `json:"is_keeper"`
	IsDuplicate bool   `json:"is_duplicate"`
}

// hashGroupResponse is one content-hash duplicate group
type hashGroupResponse struct {
	Hash        string      `json:"hash"`
	Count       int         `json:"count"`
	FileSize    int64       `json:"file_size"`
	WastedSpace int64       `json:"wasted_space"`
	Files       []fileEntry `json:"files"`
}

// titleGroupResponse is one normalized-title duplicate group
type titleGroupResponse struct {
	Title            string      `json:"title"`
	Author           string      `json:"author"`
	Count            int         `json:"count"`
	PotentialSavings int64       `json:"potential_savings"`
	Files            []fileEntry `json:"files"`
}

// bookResponse is a catalog record in list/detail endpoints
type bookResponse struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Narrator      string  `json:"narrator,omitempty"`
	FilePath      string  `json:"file_path"`
	FileSize      int64   `json:"file_size"`
	Format        string  `json:"format"`
	DurationHours float64 `json:"duration_hours"`
	ContentHash   string  `json:"content_hash,omitempty"`
}

func toBookResponse(b *store.Book) bookResponse {
	return bookResponse{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		Narrator:      b.Narrator,
		FilePath:      b.FilePath,
		FileSize:      b.FileSize,
		Format:        b.Format,
		DurationHours: b.DurationHours,
		ContentHash:   b.ContentHash,
	}
}

func groupFiles(g *dupes.Group) []fileEntry {
	files := make([]fileEntry, 0, len(g.Members))
	for i, m := range g.Members {
		files = append(files, fileEntry{
			ID:          m.ID,
			Title:       m.Title,
			Author:      m.Author,
			FilePath:    m.FilePath,
			FileSize:    m.FileSize,
			Format:      m.Format,
			IsKeeper:    i == g.KeeperIdx,
			IsDuplicate: i != g.KeeperIdx,
		})
	}
	return files
}

// ListBooksHandler returns a page of catalog records
func (s *Server) ListBooksHandler(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 100)
	offset := intQuery(r, "offset", 0)

	books, err := s.store.ListBooks(limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	total, err := s.store.CountBooks()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	items := make([]bookResponse, 0, len(books))
	for _, b := range books {
		items = append(items, toBookResponse(b))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"books":  items,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetBookHandler returns one catalog record
func (s *Server) GetBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	book, err := s.store.GetBookByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if book == nil {
		writeError(w, http.StatusNotFound, util.ErrNotFound)
		return
	}

	writeJSON(w, http.StatusOK, toBookResponse(book))
}

// HashDuplicatesHandler lists content-hash duplicate groups
func (s *Server) HashDuplicatesHandler(w http.ResponseWriter, r *http.Request) {
	groups, err := dupes.NewGrouper(s.store).ByHash()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]hashGroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, hashGroupResponse{
			Hash:        g.Key,
			Count:       len(g.Members),
			FileSize:    g.Keeper().FileSize,
			WastedSpace: g.WastedSpace(),
			Files:       groupFiles(g),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"groups":       out,
		"group_count":  len(out),
		"wasted_space": dupes.TotalWasted(groups),
	})
}

// TitleDuplicatesHandler lists normalized-title duplicate groups
func (s *Server) TitleDuplicatesHandler(w http.ResponseWriter, r *http.Request) {
	groups, err := dupes.NewGrouper(s.store).ByTitle()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]titleGroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, titleGroupResponse{
			Title:            g.Title,
			Author:           g.Author,
			Count:            len(g.Members),
			PotentialSavings: g.PotentialSavings(),
			Files:            groupFiles(g),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"groups":      out,
		"group_count": len(out),
	})
}

// ChecksumDuplicatesHandler reports filesystem-checksum duplicates per tree
func (s *Server) ChecksumDuplicatesHandler(w http.ResponseWriter, r *http.Request) {
	treeParam := r.URL.Query().Get("type")
	if treeParam == "" {
		treeParam = "both"
	}

	var trees []chkindex.Tree
	switch treeParam {
	case "both":
		trees = []chkindex.Tree{chkindex.TreeSources, chkindex.TreeLibrary}
	default:
		tree, err := chkindex.ParseTree(treeParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		trees = []chkindex.Tree{tree}
	}

	out := make(map[string]any, len(trees))
	for _, tree := range trees {
		rep, err := chkindex.Report(s.cfg.IndexDir, tree)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		out[string(tree)] = checksumTreeResponse(rep)
	}

	writeJSON(w, http.StatusOK, out)
}

func checksumTreeResponse(rep *chkindex.TreeReport) map[string]any {
	groups := make([]map[string]any, 0, len(rep.DuplicateGroups))
	for _, g := range rep.DuplicateGroups {
		files := make([]map[string]any, 0, len(g.Files))
		for i, f := range g.Files {
			files = append(files, map[string]any{
				"path":      f.Path,
				"size":      f.Size,
				"exists":    f.Exists,
				"is_keeper": i == g.KeeperIdx,
			})
		}
		groups = append(groups, map[string]any{
			"checksum":     g.Checksum,
			"count":        len(g.Files),
			"wasted_space": g.WastedSpace,
			"files":        files,
		})
	}

	return map[string]any{
		"exists":           rep.Exists,
		"total_files":      rep.TotalFiles,
		"unique_checksums": rep.UniqueChecksums,
		"duplicate_groups": groups,
	}
}

// verifyRequest asks whether a set of records may be deleted
type verifyRequest struct {
	IDs  []int64 `json:"ids"`
	Mode string  `json:"mode,omitempty"`
}

// VerifyHandler is a dry run of the planner with no side effects
func (s *Server) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Mode == "" {
		req.Mode = string(dupes.ModeHash)
	}

	mode, err := dupes.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	plan, err := dupes.NewPlanner(s.store).Plan(req.IDs, mode)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, util.ErrValidation) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}

	unsafe := make([]map[string]any, 0, len(plan.Blocked))
	for _, b := range plan.Blocked {
		unsafe = append(unsafe, map[string]any{"id": b.ID, "reason": b.Reason})
	}

	safeIDs := plan.SafeIDs
	if safeIDs == nil {
		safeIDs = []int64{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"safe_ids":   safeIDs,
		"unsafe_ids": unsafe,
	})
}

// deleteRequest names records to delete under a grouping mode
type deleteRequest struct {
	Mode string  `json:"mode"`
	IDs  []int64 `json:"ids"`
}

// DeleteDuplicatesHandler plans and executes a deletion batch
func (s *Server) DeleteDuplicatesHandler(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	mode, err := dupes.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	plan, err := dupes.NewPlanner(s.store).Plan(req.IDs, mode)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, util.ErrValidation) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}

	executor := dupes.NewExecutor(&dupes.ExecutorConfig{
		Store:    s.store,
		IndexDir: s.cfg.IndexDir,
		Logger:   s.logger,
	})

	result, err := executor.Execute(plan)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, deleteResponse(result))
}

// deleteFilesRequest names filesystem paths to delete against one tree
type deleteFilesRequest struct {
	Type  string   `json:"type"`
	Paths []string `json:"paths"`
}

// DeleteFilesHandler deletes files by path under checksum-index grouping
func (s *Server) DeleteFilesHandler(w http.ResponseWriter, r *http.Request) {
	var req deleteFilesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	tree, err := chkindex.ParseTree(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	plan, err := dupes.NewPlanner(s.store).PlanPaths(req.Paths, s.cfg.IndexDir, tree)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, util.ErrValidation) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}

	executor := dupes.NewExecutor(&dupes.ExecutorConfig{
		Store:    s.store,
		IndexDir: s.cfg.IndexDir,
		Logger:   s.logger,
	})

	result, err := executor.ExecutePaths(plan)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, deleteResponse(result))
}

func deleteResponse(result *dupes.Result) map[string]any {
	deleted := result.Deleted
	if deleted == nil {
		deleted = []dupes.DeletedItem{}
	}
	blocked := result.Blocked
	if blocked == nil {
		blocked = []dupes.Blocked{}
	}
	errs := result.Errors
	if errs == nil {
		errs = []dupes.ItemError{}
	}

	return map[string]any{
		"deleted_count": len(deleted),
		"deleted":       deleted,
		"blocked_count": len(blocked),
		"blocked":       blocked,
		"errors":        errs,
		"bytes_freed":   result.BytesFreed,
	}
}

// intQuery parses an integer query parameter with a default
func intQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		util.ErrorLog("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
