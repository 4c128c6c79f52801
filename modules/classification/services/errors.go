package services

import (
	"strconv"

	"github.com/iota-uz/classification/modules/classification/domain/entitykind"
	"github.com/iota-uz/classification/pkg/serrors"
)

// Every invariant violation is detected synchronously in the service
// layer and reported as a serrors.BaseError with a stable code, so the
// calling layer can render a field-level message without re-deriving
// context. The one exception is the assignment upsert race, where the
// store's unique index is the authority (see errConcurrentUpdate).

func errAxisNotFound(axisID int64) *serrors.BaseError {
	return serrors.NewError(
		"CATEGORY_AXIS_NOT_FOUND",
		"category axis not found",
		"Classification.Errors.AxisNotFound",
	).WithTemplateData(map[string]string{"AxisID": strconv.FormatInt(axisID, 10)})
}

func errAxisCodeDuplicate(axisCode string) *serrors.BaseError {
	return serrors.NewError(
		"AXIS_CODE_DUPLICATE",
		"axis code already exists",
		"Classification.Errors.AxisCodeDuplicate",
	).WithTemplateData(map[string]string{"AxisCode": axisCode})
}

func errHierarchyNotSupported(kind entitykind.EntityKind) *serrors.BaseError {
	return serrors.NewError(
		"HIERARCHY_NOT_SUPPORTED",
		"hierarchy is only supported for ITEM axes",
		"Classification.Errors.HierarchyNotSupported",
	).WithTemplateData(map[string]string{
		"Expected": entitykind.Item.String(),
		"Actual":   kind.String(),
	})
}

func errHierarchyNotAllowed(axisID int64) *serrors.BaseError {
	return serrors.NewError(
		"HIERARCHY_NOT_ALLOWED",
		"axis does not allow hierarchical segments",
		"Classification.Errors.HierarchyNotAllowed",
	).WithTemplateData(map[string]string{"AxisID": strconv.FormatInt(axisID, 10)})
}

func errSegmentNotFound(segmentID int64) *serrors.BaseError {
	return serrors.NewError(
		"SEGMENT_NOT_FOUND",
		"segment not found",
		"Classification.Errors.SegmentNotFound",
	).WithTemplateData(map[string]string{"SegmentID": strconv.FormatInt(segmentID, 10)})
}

func errParentSegmentNotFound(parentID int64) *serrors.BaseError {
	return serrors.NewError(
		"PARENT_SEGMENT_NOT_FOUND",
		"parent segment not found",
		"Classification.Errors.ParentSegmentNotFound",
	).WithTemplateData(map[string]string{"ParentSegmentID": strconv.FormatInt(parentID, 10)})
}

func errSegmentCodeDuplicate(segmentCode string) *serrors.BaseError {
	return serrors.NewError(
		"SEGMENT_CODE_DUPLICATE",
		"segment code already exists in this axis",
		"Classification.Errors.SegmentCodeDuplicate",
	).WithTemplateData(map[string]string{"SegmentCode": segmentCode})
}

func errParentSegmentWrongAxis(expectedAxisID, actualAxisID int64) *serrors.BaseError {
	return serrors.NewError(
		"PARENT_SEGMENT_WRONG_AXIS",
		"parent segment belongs to a different axis",
		"Classification.Errors.ParentSegmentWrongAxis",
	).WithTemplateData(map[string]string{
		"Expected": strconv.FormatInt(expectedAxisID, 10),
		"Actual":   strconv.FormatInt(actualAxisID, 10),
	})
}

func errCircularReference(segmentID int64) *serrors.BaseError {
	return serrors.NewError(
		"CIRCULAR_REFERENCE",
		"segment cannot be its own ancestor",
		"Classification.Errors.CircularReference",
	).WithTemplateData(map[string]string{"SegmentID": strconv.FormatInt(segmentID, 10)})
}

func errHierarchyDepthExceeded(level int) *serrors.BaseError {
	return serrors.NewError(
		"HIERARCHY_DEPTH_EXCEEDED",
		"maximum hierarchy depth exceeded",
		"Classification.Errors.HierarchyDepthExceeded",
	).WithTemplateData(map[string]string{
		"MaxDepth": strconv.Itoa(maxHierarchyDepth),
		"Level":    strconv.Itoa(level),
	})
}

func errInvalidEntityKind(expected, actual entitykind.EntityKind) *serrors.BaseError {
	return serrors.NewError(
		"INVALID_ENTITY_KIND",
		"entity kind does not match the axis target",
		"Classification.Errors.InvalidEntityKind",
	).WithTemplateData(map[string]string{
		"Expected": expected.String(),
		"Actual":   actual.String(),
	})
}

func errSegmentNotInAxis(segmentID, axisID int64) *serrors.BaseError {
	return serrors.NewError(
		"SEGMENT_NOT_IN_AXIS",
		"segment does not belong to the axis",
		"Classification.Errors.SegmentNotInAxis",
	).WithTemplateData(map[string]string{
		"SegmentID": strconv.FormatInt(segmentID, 10),
		"AxisID":    strconv.FormatInt(axisID, 10),
	})
}

func errEntityNotFound(kind entitykind.EntityKind, entityID string) *serrors.BaseError {
	return serrors.NewError(
		"ENTITY_NOT_FOUND",
		"referenced entity does not exist",
		"Classification.Errors.EntityNotFound",
	).WithTemplateData(map[string]string{
		"EntityKind": kind.String(),
		"EntityID":   entityID,
	})
}

func errEntityKindNotSupported(kind entitykind.EntityKind) *serrors.BaseError {
	return serrors.NewError(
		"ENTITY_KIND_NOT_SUPPORTED",
		"no existence oracle registered for entity kind",
		"Classification.Errors.EntityKindNotSupported",
	).WithTemplateData(map[string]string{"EntityKind": kind.String()})
}

func errAssignmentNotFound(assignmentID int64) *serrors.BaseError {
	return serrors.NewError(
		"ASSIGNMENT_NOT_FOUND",
		"segment assignment not found",
		"Classification.Errors.AssignmentNotFound",
	).WithTemplateData(map[string]string{"AssignmentID": strconv.FormatInt(assignmentID, 10)})
}

func errConcurrentUpdate() *serrors.BaseError {
	return serrors.NewError(
		"CONCURRENT_UPDATE",
		"row was modified by another request, re-fetch and retry",
		"Classification.Errors.ConcurrentUpdate",
	)
}
