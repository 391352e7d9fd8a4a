package usecase_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wekeepgrowing/semo-syslog/internal/domain/dto"
	"github.com/wekeepgrowing/semo-syslog/internal/domain/entity"
	"github.com/wekeepgrowing/semo-syslog/internal/usecase"
)

func exportDoc() *dto.ExportDocument {
	resolvedAt := testNow.Add(-time.Minute)
	return &dto.ExportDocument{
		ExportID:    "exp-1",
		GeneratedAt: testNow,
		ExportedBy:  "admin",
		TotalLogs:   2,
		Filters:     entity.LogQuery{Level: "error"},
		Logs: []*entity.LogRecord{
			{
				ID: "a1", Level: entity.LevelError, Message: `quote "this", please`, Source: "api",
				Category: "api", Environment: entity.EnvProduction, Tags: []string{"api", "get"},
				Details: map[string]interface{}{"statusCode": 500}, CreatedAt: testNow,
				Resolved: true, ResolvedBy: "u1", ResolvedAt: &resolvedAt,
			},
			{
				ID: "a2", Level: entity.LevelError, Message: "second", Source: "database",
				Category: "database", Environment: entity.EnvProduction, Tags: []string{},
				Details: map[string]interface{}{}, CreatedAt: testNow.Add(-time.Hour),
			},
		},
	}
}

func TestWriteExport_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, usecase.WriteExport(&buf, exportDoc(), usecase.ExportJSON, usecase.CompressNone))

	var got struct {
		ExportInfo struct {
			ExportedBy string          `json:"exportedBy"`
			TotalLogs  int             `json:"totalLogs"`
			Filters    entity.LogQuery `json:"filters"`
		} `json:"exportInfo"`
		Logs []entity.LogRecord `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "admin", got.ExportInfo.ExportedBy)
	assert.Equal(t, 2, got.ExportInfo.TotalLogs)
	assert.Equal(t, "error", got.ExportInfo.Filters.Level)
	require.Len(t, got.Logs, 2)
	assert.Equal(t, "a1", got.Logs[0].ID)
}

func TestWriteExport_CSVCompressed(t *testing.T) {
	readers := map[usecase.ExportCompression]func(io.Reader) (io.Reader, error){
		usecase.CompressGzip: func(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) },
		usecase.CompressZstd: func(r io.Reader) (io.Reader, error) { return zstd.NewReader(r) },
	}
	for compression, open := range readers {
		t.Run(string(compression), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, usecase.WriteExport(&buf, exportDoc(), usecase.ExportCSV, compression))

			r, err := open(&buf)
			require.NoError(t, err)
			rows, err := csv.NewReader(r).ReadAll()
			require.NoError(t, err)

			require.Len(t, rows, 3)
			assert.Equal(t, "id", rows[0][0])
			assert.Equal(t, "a1", rows[1][0])
			assert.Equal(t, `quote "this", please`, rows[1][5])
			assert.Equal(t, "true", rows[1][7])
			assert.Equal(t, "api;get", rows[1][13])
			assert.JSONEq(t, `{"statusCode":500}`, rows[1][14])
			assert.Equal(t, "", rows[2][9])
		})
	}
}

func TestParseExportOptions(t *testing.T) {
	f, err := usecase.ParseExportFormat("")
	require.NoError(t, err)
	assert.Equal(t, usecase.ExportJSON, f)

	f, err = usecase.ParseExportFormat("CSV")
	require.NoError(t, err)
	assert.Equal(t, usecase.ExportCSV, f)

	_, err = usecase.ParseExportFormat("xml")
	assert.ErrorIs(t, err, usecase.ErrUnsupportedFormat)

	_, err = usecase.ParseExportCompression("brotli")
	assert.ErrorIs(t, err, usecase.ErrUnsupportedFormat)

	assert.Equal(t, "system-logs-1741620600000.csv.gz",
		usecase.ExportFileName(testNow, usecase.ExportCSV, usecase.CompressGzip))
}
