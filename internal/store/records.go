package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jackzampolin/samp/internal/acm"
)

const recordColumns = `id, source_id, school_name, school_code, building_id, building_name,
	building_year, building_construction, room_id, room_name, room_area, area_type,
	product, material_description, extent, location, friable, material_condition,
	risk_status, result, page_number, disturbance_potential, sample_no, sample_result,
	identifying_company, quantity, acm_labelled, acm_label_details,
	hygienist_recommendations, psb_supplied_acm_id, removal_status, date_of_removal,
	extraction_confidence, data_issues`

// SaveRecord inserts one ACM record, assigning an ID when empty.
func (s *Store) SaveRecord(ctx context.Context, rec *acm.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	issues, err := json.Marshal(orEmpty(rec.DataIssues))
	if err != nil {
		return fmt.Errorf("marshal data issues: %w", err)
	}

	var labelled any
	if rec.ACMLabelled != nil {
		labelled = boolToInt(*rec.ACMLabelled)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO acm_records (`+recordColumns+`, created_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.ID, rec.SourceID, rec.SchoolName, rec.SchoolCode, rec.BuildingID, rec.BuildingName,
		rec.BuildingYear, rec.BuildingConstruction, rec.RoomID, rec.RoomName, rec.RoomArea, rec.AreaType,
		rec.Product, rec.MaterialDescription, rec.Extent, rec.Location, rec.Friable, rec.MaterialCondition,
		rec.RiskStatus, rec.Result, rec.PageNumber, rec.DisturbancePotential, rec.SampleNo, rec.SampleResult,
		rec.IdentifyingCompany, rec.Quantity, labelled, rec.ACMLabelDetails,
		rec.HygienistRecommendations, rec.PSBSuppliedACMID, rec.RemovalStatus, rec.DateOfRemoval,
		string(rec.ExtractionConfidence), string(issues), now())
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

// DeleteRecordsBySource removes every record for a source and reports how
// many were removed. Zero is not an error.
func (s *Store) DeleteRecordsBySource(ctx context.Context, sourceID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM acm_records WHERE source_id = ?`, sourceID)
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// CountRecordsBySource reports how many records a source currently has.
func (s *Store) CountRecordsBySource(ctx context.Context, sourceID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM acm_records WHERE source_id = ?`, sourceID).Scan(&n)
	return n, err
}

// GetRecord loads one record by ID.
func (s *Store) GetRecord(ctx context.Context, id string) (*acm.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM acm_records WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return scanRecord(rows)
}

// RecordFilter narrows ListRecords. Zero values mean "any".
type RecordFilter struct {
	SourceID   string
	BuildingID string
	RoomID     string
	Result     string
	Confidence acm.Confidence
	Limit      int
	Offset     int
}

// ListRecords returns records matching the filter, ordered by building,
// room, and page for stable register-like output.
func (s *Store) ListRecords(ctx context.Context, f RecordFilter) ([]*acm.Record, error) {
	var conds []string
	var args []any
	add := func(cond string, val any) {
		conds = append(conds, cond)
		args = append(args, val)
	}
	if f.SourceID != "" {
		add("source_id = ?", f.SourceID)
	}
	if f.BuildingID != "" {
		add("building_id = ?", f.BuildingID)
	}
	if f.RoomID != "" {
		add("room_id = ?", f.RoomID)
	}
	if f.Result != "" {
		add("result = ?", f.Result)
	}
	if f.Confidence != "" {
		add("extraction_confidence = ?", string(f.Confidence))
	}

	q := `SELECT ` + recordColumns + ` FROM acm_records`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY building_id, room_id, page_number, id"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
		if f.Offset > 0 {
			q += " OFFSET ?"
			args = append(args, f.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []*acm.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecordStats aggregates the register for dashboards and the stats endpoint.
type RecordStats struct {
	TotalRecords int                    `json:"total_records"`
	Sources      int                    `json:"sources"`
	Buildings    int                    `json:"buildings"`
	ByResult     map[string]int         `json:"by_result"`
	ByRiskStatus map[string]int         `json:"by_risk_status"`
	ByConfidence map[acm.Confidence]int `json:"by_confidence"`
}

// Stats computes aggregate counts, optionally scoped to one source.
// An empty sourceID aggregates the whole register.
func (s *Store) Stats(ctx context.Context, sourceID string) (*RecordStats, error) {
	stats := &RecordStats{
		ByResult:     map[string]int{},
		ByRiskStatus: map[string]int{},
		ByConfidence: map[acm.Confidence]int{},
	}

	where := ""
	var args []any
	if sourceID != "" {
		where = " WHERE source_id = ?"
		args = append(args, sourceID)
	}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT source_id), COUNT(DISTINCT source_id || '/' || building_id)
		 FROM acm_records`+where, args...).Scan(&stats.TotalRecords, &stats.Sources, &stats.Buildings)
	if err != nil {
		return nil, fmt.Errorf("stats totals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT result, COUNT(*) FROM acm_records`+where+` GROUP BY result`, args...)
	if err != nil {
		return nil, fmt.Errorf("stats by result: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var result string
		var n int
		if err := rows.Scan(&result, &n); err != nil {
			return nil, err
		}
		stats.ByResult[result] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	riskWhere := " WHERE risk_status != ''"
	if sourceID != "" {
		riskWhere += " AND source_id = ?"
	}
	rrows, err := s.db.QueryContext(ctx,
		`SELECT risk_status, COUNT(*) FROM acm_records`+riskWhere+` GROUP BY risk_status`, args...)
	if err != nil {
		return nil, fmt.Errorf("stats by risk: %w", err)
	}
	defer rrows.Close()
	for rrows.Next() {
		var risk string
		var n int
		if err := rrows.Scan(&risk, &n); err != nil {
			return nil, err
		}
		stats.ByRiskStatus[risk] = n
	}
	if err := rrows.Err(); err != nil {
		return nil, err
	}

	confWhere := " WHERE extraction_confidence != ''"
	if sourceID != "" {
		confWhere += " AND source_id = ?"
	}
	crows, err := s.db.QueryContext(ctx,
		`SELECT extraction_confidence, COUNT(*) FROM acm_records`+confWhere+` GROUP BY extraction_confidence`, args...)
	if err != nil {
		return nil, fmt.Errorf("stats by confidence: %w", err)
	}
	defer crows.Close()
	for crows.Next() {
		var conf string
		var n int
		if err := crows.Scan(&conf, &n); err != nil {
			return nil, err
		}
		stats.ByConfidence[acm.Confidence(conf)] = n
	}
	return stats, crows.Err()
}

func scanRecord(rows *sql.Rows) (*acm.Record, error) {
	var rec acm.Record
	var labelled sql.NullInt64
	var conf, issues string

	err := rows.Scan(
		&rec.ID, &rec.SourceID, &rec.SchoolName, &rec.SchoolCode, &rec.BuildingID, &rec.BuildingName,
		&rec.BuildingYear, &rec.BuildingConstruction, &rec.RoomID, &rec.RoomName, &rec.RoomArea, &rec.AreaType,
		&rec.Product, &rec.MaterialDescription, &rec.Extent, &rec.Location, &rec.Friable, &rec.MaterialCondition,
		&rec.RiskStatus, &rec.Result, &rec.PageNumber, &rec.DisturbancePotential, &rec.SampleNo, &rec.SampleResult,
		&rec.IdentifyingCompany, &rec.Quantity, &labelled, &rec.ACMLabelDetails,
		&rec.HygienistRecommendations, &rec.PSBSuppliedACMID, &rec.RemovalStatus, &rec.DateOfRemoval,
		&conf, &issues)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rec.ExtractionConfidence = acm.Confidence(conf)
	if labelled.Valid {
		v := labelled.Int64 != 0
		rec.ACMLabelled = &v
	}
	if issues != "" {
		if err := json.Unmarshal([]byte(issues), &rec.DataIssues); err != nil {
			return nil, fmt.Errorf("decode data issues: %w", err)
		}
	}
	return &rec, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
