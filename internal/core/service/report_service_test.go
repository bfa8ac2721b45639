package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartretail/storefront/internal/core/domain"
)

type stubReportSource struct {
	data  []byte
	err   error
	calls []string
}

func (s *stubReportSource) DownloadSalesReportCSV(_ context.Context, group domain.ReportGroup, from, to string) ([]byte, error) {
	s.calls = append(s.calls, string(group)+"|"+from+"|"+to)
	return s.data, s.err
}

type memObjectStore struct {
	objects map[string][]byte
	types   map[string]string
	ensured int
	putErr  error
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memObjectStore) EnsureBucket(context.Context) error { m.ensured++; return nil }

func (m *memObjectStore) Put(_ context.Context, key string, r io.Reader, size int64, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return errors.New("size mismatch")
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memObjectStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memObjectStore) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memObjectStore) Bucket() string { return "reports-test" }

func TestReportExporter_ArchivesCSV(t *testing.T) {
	csv := []byte("period,orders,items,revenue\n2024-W01,3,5,50.00\n")
	src := &stubReportSource{data: csv}
	store := newMemObjectStore()
	exp := NewReportExporter(src, store, zerolog.Nop())

	res, err := exp.Export(context.Background(), domain.GroupWeek, "2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	wantKey := "reports/sales_week_2024-01-01_2024-01-31.csv"
	if res.Key != wantKey || res.Bucket != "reports-test" || res.Size != int64(len(csv)) {
		t.Fatalf("unexpected result %+v", res)
	}
	if !bytes.Equal(store.objects[wantKey], csv) || store.types[wantKey] != "text/csv" {
		t.Fatalf("object not stored as expected")
	}
	if store.ensured != 1 {
		t.Fatalf("expected bucket to be ensured once, got %d", store.ensured)
	}
}

func TestReportExporter_ResolvesDefaultRange(t *testing.T) {
	src := &stubReportSource{data: []byte("period,orders,items,revenue\n")}
	exp := NewReportExporter(src, newMemObjectStore(), zerolog.Nop())
	exp.now = func() time.Time { return time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC) }

	res, err := exp.Export(context.Background(), "", "", "")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Key != "reports/sales_day_2024-03-01_2024-03-31.csv" {
		t.Fatalf("unexpected key %s", res.Key)
	}
	if src.calls[0] != "day|2024-03-01|2024-03-31" {
		t.Fatalf("download used unresolved range: %s", src.calls[0])
	}
}

func TestReportExporter_Failures(t *testing.T) {
	exp := NewReportExporter(&stubReportSource{}, newMemObjectStore(), zerolog.Nop())
	if _, err := exp.Export(context.Background(), "year", "", ""); err == nil {
		t.Fatalf("expected invalid group to fail")
	}

	denied := &domain.RequestError{Kind: domain.KindStatus, Status: 403, Message: "Admins only"}
	exp = NewReportExporter(&stubReportSource{err: denied}, newMemObjectStore(), zerolog.Nop())
	_, err := exp.Export(context.Background(), domain.GroupDay, "", "")
	if domain.StatusCode(err) != 403 {
		t.Fatalf("expected wrapped 403, got %v", err)
	}

	store := newMemObjectStore()
	store.putErr = errors.New("disk full")
	exp = NewReportExporter(&stubReportSource{data: []byte("x")}, store, zerolog.Nop())
	if _, err := exp.Export(context.Background(), domain.GroupDay, "", ""); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected storage error, got %v", err)
	}
}
