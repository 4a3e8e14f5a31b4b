package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"farmacia-data/internal/domain"
	"farmacia-data/internal/importer"
	"farmacia-data/internal/render"
	"farmacia-data/internal/report"
	"farmacia-data/internal/repository"
	"farmacia-data/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type serviceFixture struct {
	store     *repository.MemoryStore
	cache     *SnapshotCache
	inventory *InventoryService
	residents *ResidentService
	users     *UserService
	imports   *ImportService
	reports   *ReportService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	st := repository.NewMemoryStore()
	cache := NewSnapshotCache(st, store.NewMemoryKV(), time.Minute, zap.NewNop(), nil)
	f := &serviceFixture{
		store:     st,
		cache:     cache,
		inventory: NewInventoryService(st, cache, time.UTC, zap.NewNop()),
		residents: NewResidentService(st, cache, zap.NewNop()),
		users:     NewUserService(st, zap.NewNop()),
		imports:   NewImportService(st, cache, zap.NewNop(), nil),
		reports:   NewReportService(cache, time.UTC, zap.NewNop(), nil),
	}
	f.inventory.now = func() time.Time { return fixedNow }
	f.reports.now = func() time.Time { return fixedNow }
	return f
}

func TestInventoryService(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.inventory.Create(ctx, visitor, domain.InventoryItem{Name: "Gasa"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	gasa, err := f.inventory.Create(ctx, pharmacist, domain.InventoryItem{ID: "ignored", Name: " Gasa ", Stock: 2, MinimumStock: 5, Department: "enfermera jefe"})
	require.NoError(t, err)
	assert.NotEqual(t, "ignored", gasa.ID)
	assert.Equal(t, "Gasa", gasa.Name)
	assert.Equal(t, domain.DefaultUnit, gasa.Unit)
	assert.Equal(t, domain.DepartmentHeadNurse, gasa.Department)

	_, err = f.inventory.Create(ctx, pharmacist, domain.InventoryItem{Name: "X", Department: "Cocina"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.inventory.Create(ctx, pharmacist, domain.InventoryItem{Name: "X", Stock: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.inventory.Create(ctx, nurse, domain.InventoryItem{Name: "Alcohol", Stock: 20, MinimumStock: 5})
	require.NoError(t, err)

	// 访客可以查看库存
	list, err := f.inventory.List(ctx, visitor, "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alcohol", list[0].Name)
	assert.False(t, list[0].LowStock)
	assert.True(t, list[1].LowStock)
	assert.Equal(t, "Gasa (Enfermera Jefe) [Stk:2]", list[1].Label)

	list, err = f.inventory.List(ctx, visitor, "Farmacia")
	require.NoError(t, err)
	require.Len(t, list, 1)
	_, err = f.inventory.List(ctx, visitor, "Cocina")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.inventory.List(ctx, domain.Session{}, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// 修改不影响库存
	upd, err := f.inventory.Update(ctx, pharmacist, domain.InventoryItem{ID: gasa.ID, Name: "Gasa estéril", Stock: 500, MinimumStock: 1, Department: "Farmacia"})
	require.NoError(t, err)
	assert.Equal(t, 2, upd.Stock)
	got, err := f.store.GetInventoryItem(ctx, gasa.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gasa estéril", got.Name)
	assert.Equal(t, 2, got.Stock)

	// 仅管理员可删除
	assert.ErrorIs(t, f.inventory.Delete(ctx, pharmacist, gasa.ID), domain.ErrForbidden)
	require.NoError(t, f.inventory.Delete(ctx, admin, gasa.ID))
	assert.ErrorIs(t, f.inventory.Delete(ctx, admin, gasa.ID), domain.ErrNotFound)

	pdf, err := f.inventory.PDF(ctx, visitor)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}

func TestResidentService_Permissions(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.residents.Create(ctx, pharmacist, domain.Resident{Name: "Ana"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.residents.List(ctx, visitor)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	ana, err := f.residents.Create(ctx, nurse, domain.Resident{Name: "Ana", NationalID: "1-9"})
	require.NoError(t, err)
	_, err = f.residents.Create(ctx, admin, domain.Resident{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	ana.Room = "101"
	_, err = f.residents.Update(ctx, admin, *ana)
	require.NoError(t, err)

	list, err := f.residents.List(ctx, pharmacist)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "101", list[0].Room)

	assert.ErrorIs(t, f.residents.Delete(ctx, pharmacist, ana.ID), domain.ErrForbidden)
	require.NoError(t, f.residents.Delete(ctx, nurse, ana.ID))
	list, err = f.residents.List(ctx, pharmacist)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUserService(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	n, err := f.users.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	n, err = f.users.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	sess, err := f.users.Login(ctx, "farma", "farma2024")
	require.NoError(t, err)
	assert.Equal(t, domain.RolePharmacy, sess.Role)

	_, err = f.users.Login(ctx, "farma", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.users.Login(ctx, "nadie", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.users.List(ctx, pharmacist)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.users.Create(ctx, admin, "farma", "x", "Farmacia")
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, err = f.users.Create(ctx, admin, "nuevo", "x", "Jardinero")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	u, err := f.users.Create(ctx, admin, "nuevo", "clave", "visitor")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleVisitor, u.Role)

	// 只改角色，密码保持不变
	_, err = f.users.Update(ctx, admin, "nuevo", "Enfermera Jefe", "")
	require.NoError(t, err)
	sess, err = f.users.Login(ctx, "nuevo", "clave")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleHeadNurse, sess.Role)

	_, err = f.users.Update(ctx, admin, "nuevo", "", "otra")
	require.NoError(t, err)
	_, err = f.users.Login(ctx, "nuevo", "otra")
	require.NoError(t, err)

	assert.ErrorIs(t, f.users.Delete(ctx, admin, "admin"), domain.ErrForbidden)
	require.NoError(t, f.users.Delete(ctx, admin, "nuevo"))
	users, err := f.users.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, users, 4)
}

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, wb.SetSheetRow("Sheet1", cell, &r))
	}
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestImportService_Inventory(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	_, err := f.inventory.Create(ctx, pharmacist, domain.InventoryItem{Name: "Gasa", Stock: 1})
	require.NoError(t, err)

	// 先读一次缓存，确认导入后会失效
	list, err := f.inventory.List(ctx, pharmacist, "")
	require.NoError(t, err)
	require.Len(t, list, 1)

	wb := workbook(t, [][]any{
		{"Nombre", "Stock", "Gestion"},
		{"Gasa", 5},
		{"Alcohol", 12, "Enfermera Jefe"},
		{"Suero", "muchos"},
	})
	sum, err := f.imports.Import(ctx, pharmacist, importer.KindInventory, wb)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Created)
	assert.Equal(t, []string{"Gasa"}, sum.Skipped)
	require.Len(t, sum.Errors, 1)
	assert.Equal(t, "Suero", sum.Errors[0].Name)

	list, err = f.inventory.List(ctx, pharmacist, "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alcohol", list[0].Name)
	assert.Equal(t, 12, list[0].Stock)
	assert.Equal(t, domain.DefaultMinimumStock, list[0].MinimumStock)
	assert.Equal(t, domain.DepartmentHeadNurse, list[0].Department)

	_, err = f.imports.Import(ctx, visitor, importer.KindInventory, workbook(t, nil))
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.imports.Import(ctx, admin, "usuarios", workbook(t, nil))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestImportService_Residents(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	wb := workbook(t, [][]any{
		{"Nombre", "RUT", "Piso", "Habitacion", "Apoderado"},
		{"Ana", "1-9", 1, 101, "Luis"},
		{"Beto", "2-7"},
	})
	_, err := f.imports.Import(ctx, pharmacist, "residentes", wb)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	sum, err := f.imports.Import(ctx, nurse, "residentes", wb)
	require.NoError(t, err)
	assert.Equal(t, importer.KindResidents, sum.Kind)
	assert.Equal(t, 2, sum.Created)
	assert.Empty(t, sum.Skipped)
	assert.Empty(t, sum.Errors)

	// 再导一次全部跳过
	wb = workbook(t, [][]any{{"Nombre"}, {"Ana"}, {"Beto"}})
	sum, err = f.imports.Import(ctx, admin, importer.KindResidents, wb)
	require.NoError(t, err)
	assert.Zero(t, sum.Created)
	assert.Equal(t, []string{"Ana", "Beto"}, sum.Skipped)
}

func seedReportData(t *testing.T, f *serviceFixture) {
	t.Helper()
	ctx := context.Background()
	items := []domain.InventoryItem{
		{ID: "gasa", Name: "Gasa", Unit: "unidades", Stock: 10, Department: domain.DepartmentHeadNurse},
		{ID: "para", Name: "Paracetamol", Unit: "cajas", Stock: 10, Department: domain.DepartmentPharmacy},
	}
	for i := range items {
		require.NoError(t, f.store.CreateInventoryItem(ctx, &items[i]))
	}
	for _, r := range []domain.Resident{{ID: "ana", Name: "Ana", NationalID: "1-9", Room: "101"}, {ID: "beto", Name: "Beto"}} {
		r := r
		require.NoError(t, f.store.CreateResident(ctx, &r))
	}
	for _, m := range []domain.Movement{
		{ID: "1", Timestamp: "2024-03-04 10:00", Type: domain.MovementConsumption, ResidentID: "ana", ItemID: "para", ItemName: "Paracetamol", Quantity: 1, DepartmentSnapshot: "Farmacia"},
		{ID: "2", Timestamp: "2024-03-02 10:00", Type: domain.MovementConsumption, ResidentID: "ana", ItemID: "gasa", ItemName: "Gasa", Quantity: 2},
		{ID: "3", Timestamp: "2024-03-03", Type: domain.MovementConsumption, ResidentID: "beto", ItemID: "gasa", ItemName: "Gasa", Quantity: 1},
		{ID: "4", Timestamp: "??", Type: domain.MovementConsumption, ResidentID: "beto", ItemID: "gasa", Quantity: 1},
		{ID: "5", Timestamp: "2024-02-28 10:00", Type: domain.MovementConsumption, ResidentID: "ana", ItemID: "gasa", ItemName: "Gasa", Quantity: 9},
	} {
		m := m
		_, err := f.store.AppendMovement(ctx, &m)
		require.NoError(t, err)
	}
}

func TestReportService_DefaultRequest(t *testing.T) {
	f := newServiceFixture(t)
	req := f.reports.DefaultRequest()
	assert.Equal(t, report.Date{Year: 2024, Month: time.March, Day: 1}, req.From)
	assert.Equal(t, report.Date{Year: 2024, Month: time.March, Day: 5}, req.To)
	assert.Equal(t, domain.FilterGeneral, req.Department)
}

func TestReportService_Consumption(t *testing.T) {
	f := newServiceFixture(t)
	seedReportData(t, f)
	ctx := context.Background()
	req := f.reports.DefaultRequest()

	sum, err := f.reports.Consumption(ctx, pharmacist, req)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana", "Beto"}, sum.Residents)
	assert.Equal(t, 3, sum.RowCount)
	assert.Equal(t, 4, sum.TotalQuantity)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, "General (Todos)", sum.FilterLabel)
	assert.Equal(t, "CONSUMO", sum.Type)

	req.Department = domain.FilterPharmacy
	sum, err = f.reports.Consumption(ctx, pharmacist, req)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana"}, sum.Residents)
	assert.Equal(t, "Solo Farmacia", sum.FilterLabel)

	_, err = f.reports.Consumption(ctx, visitor, req)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestReportService_ResidentReport(t *testing.T) {
	f := newServiceFixture(t)
	seedReportData(t, f)
	ctx := context.Background()
	req := f.reports.DefaultRequest()

	rows, err := f.reports.ResidentRows(ctx, nurse, req, "Ana")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2", rows[0].Movement.ID)
	assert.Equal(t, "1", rows[1].Movement.ID)

	pdf, err := f.reports.ResidentReport(ctx, nurse, req, "Ana", render.PDFRenderer{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))

	xlsx, err := f.reports.ResidentReport(ctx, nurse, req, "Ana", render.XLSXRenderer{})
	require.NoError(t, err)
	wb, err := excelize.OpenReader(bytes.NewReader(xlsx))
	require.NoError(t, err)
	defer wb.Close()
	got, err := wb.GetRows("Consumos")
	require.NoError(t, err)
	assert.Len(t, got, 5)

	_, err = f.reports.ResidentReport(ctx, nurse, req, "Nadie", render.PDFRenderer{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReportService_ExportXLSX(t *testing.T) {
	f := newServiceFixture(t)
	seedReportData(t, f)

	out, err := f.reports.ExportXLSX(context.Background(), admin, f.reports.DefaultRequest())
	require.NoError(t, err)
	wb, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows("Consumos")
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, "2024-03-02 10:00", rows[3][0])
	assert.Equal(t, "2024-03-03", rows[4][0])
	assert.Equal(t, "2024-03-04 10:00", rows[5][0])
}
