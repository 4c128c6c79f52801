package services_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/classification/modules/classification/domain/entitykind"
	"github.com/iota-uz/classification/modules/classification/services"
)

func TestCategoryAxisService_Create(t *testing.T) {
	repo := newFakeAxisRepo()
	publisher := &stubPublisher{}
	svc := services.NewCategoryAxisService(repo, publisher)

	axis, err := svc.Create(testContext(), services.CreateAxisInput{
		AxisCode:          "  PRODUCT_LINE  ",
		AxisName:          "Product Line",
		TargetEntityKind:  entitykind.Item,
		SupportsHierarchy: true,
	})
	require.NoError(t, err)
	require.Equal(t, "PRODUCT_LINE", axis.AxisCode)
	require.Equal(t, int64(1), axis.Version)
	require.True(t, axis.IsActive)
	require.Contains(t, publisher.events, "classification.axis.created")
}

func TestCategoryAxisService_Create_DuplicateCode(t *testing.T) {
	svc := services.NewCategoryAxisService(newFakeAxisRepo(), &stubPublisher{})

	_, err := svc.Create(testContext(), services.CreateAxisInput{
		AxisCode:         "REGION",
		AxisName:         "Region",
		TargetEntityKind: entitykind.Party,
	})
	require.NoError(t, err)

	_, err = svc.Create(testContext(), services.CreateAxisInput{
		AxisCode:         "REGION",
		AxisName:         "Region again",
		TargetEntityKind: entitykind.Party,
	})
	requireErrorCode(t, err, "AXIS_CODE_DUPLICATE")
}

func TestCategoryAxisService_Create_HierarchyOnlyForItems(t *testing.T) {
	svc := services.NewCategoryAxisService(newFakeAxisRepo(), &stubPublisher{})

	_, err := svc.Create(testContext(), services.CreateAxisInput{
		AxisCode:          "SUPPLIER_TIER",
		AxisName:          "Supplier Tier",
		TargetEntityKind:  entitykind.SupplierSite,
		SupportsHierarchy: true,
	})
	requireErrorCode(t, err, "HIERARCHY_NOT_SUPPORTED")
}

func TestCategoryAxisService_Create_UnknownEntityKind(t *testing.T) {
	svc := services.NewCategoryAxisService(newFakeAxisRepo(), &stubPublisher{})

	_, err := svc.Create(testContext(), services.CreateAxisInput{
		AxisCode:         "X",
		AxisName:         "X",
		TargetEntityKind: entitykind.EntityKind("WAREHOUSE"),
	})
	require.Error(t, err)
}

func TestCategoryAxisService_Update_BumpsVersion(t *testing.T) {
	svc := services.NewCategoryAxisService(newFakeAxisRepo(), &stubPublisher{})

	axis, err := svc.Create(testContext(), services.CreateAxisInput{
		AxisCode:         "REGION",
		AxisName:         "Region",
		TargetEntityKind: entitykind.Party,
	})
	require.NoError(t, err)

	name := "Sales Region"
	updated, err := svc.Update(testContext(), axis.ID, services.UpdateAxisInput{
		ExpectedVersion: axis.Version,
		AxisName:        &name,
	})
	require.NoError(t, err)
	require.Equal(t, "Sales Region", updated.AxisName)
	require.Equal(t, axis.Version+1, updated.Version)
}

func TestCategoryAxisService_Update_VersionMismatch(t *testing.T) {
	svc := services.NewCategoryAxisService(newFakeAxisRepo(), &stubPublisher{})

	axis, err := svc.Create(testContext(), services.CreateAxisInput{
		AxisCode:         "REGION",
		AxisName:         "Region",
		TargetEntityKind: entitykind.Party,
	})
	require.NoError(t, err)

	name := "stale write"
	_, err = svc.Update(testContext(), axis.ID, services.UpdateAxisInput{
		ExpectedVersion: axis.Version + 1,
		AxisName:        &name,
	})
	requireErrorCode(t, err, "CONCURRENT_UPDATE")
}

func TestCategoryAxisService_Update_NotFound(t *testing.T) {
	svc := services.NewCategoryAxisService(newFakeAxisRepo(), &stubPublisher{})

	name := "nobody"
	_, err := svc.Update(testContext(), 404, services.UpdateAxisInput{
		ExpectedVersion: 1,
		AxisName:        &name,
	})
	requireErrorCode(t, err, "CATEGORY_AXIS_NOT_FOUND")
}

func TestCategoryAxisService_Deactivate(t *testing.T) {
	svc := services.NewCategoryAxisService(newFakeAxisRepo(), &stubPublisher{})

	axis, err := svc.Create(testContext(), services.CreateAxisInput{
		AxisCode:         "REGION",
		AxisName:         "Region",
		TargetEntityKind: entitykind.Party,
	})
	require.NoError(t, err)

	deactivated, err := svc.Deactivate(testContext(), axis.ID, axis.Version)
	require.NoError(t, err)
	require.False(t, deactivated.IsActive)
}
