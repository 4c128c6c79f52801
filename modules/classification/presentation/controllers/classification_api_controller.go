package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/iota-uz/classification/modules/classification/domain/assignment"
	"github.com/iota-uz/classification/modules/classification/domain/categoryaxis"
	"github.com/iota-uz/classification/modules/classification/domain/entitykind"
	"github.com/iota-uz/classification/modules/classification/domain/segment"
	"github.com/iota-uz/classification/modules/classification/presentation/mappers"
	"github.com/iota-uz/classification/modules/classification/services"
	"github.com/iota-uz/classification/pkg/repo"
)

type ClassificationAPIController struct {
	axes            *services.CategoryAxisService
	segments        *services.SegmentService
	classifications *services.ClassificationService
	basePath        string
}

func NewClassificationAPIController(
	axes *services.CategoryAxisService,
	segments *services.SegmentService,
	classifications *services.ClassificationService,
) *ClassificationAPIController {
	return &ClassificationAPIController{
		axes:            axes,
		segments:        segments,
		classifications: classifications,
		basePath:        "/classification/api",
	}
}

func (c *ClassificationAPIController) Key() string {
	return c.basePath
}

func (c *ClassificationAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()

	router.HandleFunc("/axes", c.ListAxes).Methods(http.MethodGet)
	router.HandleFunc("/axes", c.CreateAxis).Methods(http.MethodPost)
	router.HandleFunc("/axes/{id:[0-9]+}", c.GetAxis).Methods(http.MethodGet)
	router.HandleFunc("/axes/{id:[0-9]+}", c.UpdateAxis).Methods(http.MethodPatch)

	router.HandleFunc("/axes/{axisId:[0-9]+}/segments", c.ListSegments).Methods(http.MethodGet)
	router.HandleFunc("/axes/{axisId:[0-9]+}/segments", c.CreateSegment).Methods(http.MethodPost)
	router.HandleFunc("/axes/{axisId:[0-9]+}/segments:tree", c.GetSegmentTree).Methods(http.MethodGet)
	router.HandleFunc("/segments/{id:[0-9]+}", c.GetSegment).Methods(http.MethodGet)
	router.HandleFunc("/segments/{id:[0-9]+}", c.UpdateSegment).Methods(http.MethodPatch)
	router.HandleFunc("/segments/{id:[0-9]+}/ancestors", c.GetSegmentAncestors).Methods(http.MethodGet)
	router.HandleFunc("/segments/{id:[0-9]+}/assignments", c.ListSegmentAssignments).Methods(http.MethodGet)

	router.HandleFunc("/assignments:upsert", c.UpsertAssignment).Methods(http.MethodPost)
	router.HandleFunc("/assignments/{id:[0-9]+}", c.DeleteAssignment).Methods(http.MethodDelete)
	router.HandleFunc("/entities/{kind}/{entityId}/segments", c.GetEntitySegments).Methods(http.MethodGet)
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	return id, err == nil && id > 0
}

func parsePageParams(r *http.Request) (limit, offset int) {
	limit = repo.DefaultLimit
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("offset")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

func parseActiveFilter(r *http.Request) *bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("active"))) {
	case "true":
		active := true
		return &active
	case "false":
		active := false
		return &active
	}
	return nil
}

// ---- axes ----

func (c *ClassificationAPIController) ListAxes(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePageParams(r)
	items, err := c.axes.GetPaginated(r.Context(), &categoryaxis.FindParams{
		Limit:    limit,
		Offset:   offset,
		IsActive: parseActiveFilter(r),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	total, err := c.axes.Count(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]any, 0, len(items))
	for _, axis := range items {
		out = append(out, mappers.CategoryAxisToViewModel(axis))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out, "total": total})
}

type createAxisRequest struct {
	AxisCode          string `json:"axis_code"`
	AxisName          string `json:"axis_name"`
	TargetEntityKind  string `json:"target_entity_kind"`
	SupportsHierarchy bool   `json:"supports_hierarchy"`
	DisplayOrder      int    `json:"display_order"`
	Description       string `json:"description"`
}

func (c *ClassificationAPIController) CreateAxis(w http.ResponseWriter, r *http.Request) {
	var req createAxisRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	kind, err := entitykind.Parse(req.TargetEntityKind)
	if err != nil {
		writeAPIError(w, r, http.StatusUnprocessableEntity, "INVALID_ENTITY_KIND", "unknown target entity kind")
		return
	}

	axis, err := c.axes.Create(r.Context(), services.CreateAxisInput{
		AxisCode:          req.AxisCode,
		AxisName:          req.AxisName,
		TargetEntityKind:  kind,
		SupportsHierarchy: req.SupportsHierarchy,
		DisplayOrder:      req.DisplayOrder,
		Description:       req.Description,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mappers.CategoryAxisToViewModel(axis))
}

func (c *ClassificationAPIController) GetAxis(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "INVALID_ID", "invalid axis id")
		return
	}
	axis, err := c.axes.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.CategoryAxisToViewModel(axis))
}

type updateAxisRequest struct {
	ExpectedVersion int64   `json:"expected_version"`
	AxisName        *string `json:"axis_name"`
	DisplayOrder    *int    `json:"display_order"`
	Description     *string `json:"description"`
	IsActive        *bool   `json:"is_active"`
}

func (c *ClassificationAPIController) UpdateAxis(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "INVALID_ID", "invalid axis id")
		return
	}
	var req updateAxisRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	axis, err := c.axes.Update(r.Context(), id, services.UpdateAxisInput{
		ExpectedVersion: req.ExpectedVersion,
		AxisName:        req.AxisName,
		DisplayOrder:    req.DisplayOrder,
		Description:     req.Description,
		IsActive:        req.IsActive,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.CategoryAxisToViewModel(axis))
}

// ---- segments ----

func (c *ClassificationAPIController) ListSegments(w http.ResponseWriter, r *http.Request) {
	axisID, ok := pathID(r, "axisId")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "INVALID_ID", "invalid axis id")
		return
	}
	limit, offset := parsePageParams(r)
	items, err := c.segments.GetPaginated(r.Context(), axisID, &segment.FindParams{
		Limit:    limit,
		Offset:   offset,
		IsActive: parseActiveFilter(r),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	total, err := c.segments.Count(r.Context(), axisID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]any, 0, len(items))
	for _, seg := range items {
		out = append(out, mappers.SegmentToViewModel(seg))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out, "total": total})
}

type createSegmentRequest struct {
	SegmentCode     string `json:"segment_code"`
	SegmentName     string `json:"segment_name"`
	ParentSegmentID *int64 `json:"parent_segment_id"`
	DisplayOrder    int    `json:"display_order"`
	Description     string `json:"description"`
}

func (c *ClassificationAPIController) CreateSegment(w http.ResponseWriter, r *http.Request) {
	axisID, ok := pathID(r, "axisId")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "INVALID_ID", "invalid axis id")
		return
	}
	var req createSegmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	seg, err := c.segments.Create(r.Context(), services.CreateSegmentInput{
		CategoryAxisID:  axisID,
		SegmentCode:     req.SegmentCode,
		SegmentName:     req.SegmentName,
		ParentSegmentID: req.ParentSegmentID,
		DisplayOrder:    req.DisplayOrder,
		Description:     req.Description,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mappers.SegmentToViewModel(seg))
}

func (c *ClassificationAPIController) GetSegmentTree(w http.ResponseWriter, r *http.Request) {
	axisID, ok := pathID(r, "axisId")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "INVALID_ID", "invalid axis id")
		return
	}
	tree, err := c.segments.GetTree(r.Context(), axisID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"roots": mappers.SegmentTreeToViewModel(tree)})
}

func (c *ClassificationAPIController) GetSegment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "INVALID_ID", "invalid segment id")
		return
	}
	seg, err := c.segments.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.SegmentToViewModel(seg))
}

type updateSegmentRequest struct {
	ExpectedVersion int64   `json:"expected_version"`
	SegmentName     *string `json:"segment_name"`
	// parent_segment_id admits three states: absent (leave alone), null
	// (promote to root), and a concrete id (reparent). json.RawMessage
	// would also work; the double pointer keeps the tri-state explicit.
	ParentSegmentID **int64 `json:"parent_segment_id"`
	DisplayOrder    *int    `json:"display_order"`
	Description     *string `json:"description"`
	IsActive        *bool   `json:"is_active"`
}

func (c *ClassificationAPIController) UpdateSegment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "INVALID_ID", "invalid segment id")
		return
	}
	var req updateSegmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	seg, err := c.segments.Update(r.Context(), id, services.UpdateSegmentInput{
		ExpectedVersion: req.ExpectedVersion,
		SegmentName:     req.SegmentName,
		ParentSegmentID: req.ParentSegmentID,
		DisplayOrder:    req.DisplayOrder,
		Description:     req.Description,
		IsActive:        req.IsActive,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.SegmentToViewModel(seg))
}

func (c *ClassificationAPIController) GetSegmentAncestors(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "INVALID_ID", "invalid segment id")
		return
	}
	ancestors, err := c.segments.FindAncestors(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]any, 0, len(ancestors))
	for _, seg := range ancestors {
		out = append(out, mappers.SegmentToViewModel(seg))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

// ---- assignments ----

type upsertAssignmentRequest struct {
	EntityKind     string `json:"entity_kind"`
	EntityID       string `json:"entity_id"`
	CategoryAxisID int64  `json:"category_axis_id"`
	SegmentID      int64  `json:"segment_id"`
}

func (c *ClassificationAPIController) UpsertAssignment(w http.ResponseWriter, r *http.Request) {
	var req upsertAssignmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	kind, err := entitykind.Parse(req.EntityKind)
	if err != nil {
		writeAPIError(w, r, http.StatusUnprocessableEntity, "INVALID_ENTITY_KIND", "unknown entity kind")
		return
	}

	asg, err := c.classifications.UpsertAssignment(r.Context(), services.UpsertAssignmentInput{
		EntityKind:     kind,
		EntityID:       req.EntityID,
		CategoryAxisID: req.CategoryAxisID,
		SegmentID:      req.SegmentID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.AssignmentToViewModel(asg))
}

func (c *ClassificationAPIController) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "INVALID_ID", "invalid assignment id")
		return
	}
	expectedVersion, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("expected_version")), 10, 64)
	if err != nil || expectedVersion <= 0 {
		writeAPIError(w, r, http.StatusBadRequest, "INVALID_VERSION", "expected_version query parameter is required")
		return
	}

	if err := c.classifications.DeleteAssignment(r.Context(), id, expectedVersion); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (c *ClassificationAPIController) GetEntitySegments(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind, err := entitykind.Parse(vars["kind"])
	if err != nil {
		writeAPIError(w, r, http.StatusUnprocessableEntity, "INVALID_ENTITY_KIND", "unknown entity kind")
		return
	}
	entityID := strings.TrimSpace(vars["entityId"])
	if entityID == "" {
		writeAPIError(w, r, http.StatusBadRequest, "INVALID_ID", "entity id is required")
		return
	}

	classifications, err := c.classifications.GetEntitySegments(r.Context(), kind, entityID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]any, 0, len(classifications))
	for _, classification := range classifications {
		out = append(out, mappers.EntityClassificationToViewModel(classification))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (c *ClassificationAPIController) ListSegmentAssignments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "INVALID_ID", "invalid segment id")
		return
	}
	limit, offset := parsePageParams(r)
	params := &assignment.FindParams{Limit: limit, Offset: offset}

	var (
		items []*assignment.SegmentAssignment
		err   error
	)
	if strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("includeDescendants")), "true") {
		items, err = c.classifications.ListBySegmentWithDescendants(r.Context(), id, params)
	} else {
		items, err = c.classifications.ListBySegment(r.Context(), id, params)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]any, 0, len(items))
	for _, asg := range items {
		out = append(out, mappers.AssignmentToViewModel(asg))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}
