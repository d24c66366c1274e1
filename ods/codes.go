// Copyright 2025 The OdsSync Authors
// SPDX-License-Identifier: Apache-2.0

package ods

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Column header naming the ODS codes in the workbook.
const codesColumn = "ODS_Codes"

var (
	errNoSheet       = errors.New("workbook has no sheets")
	errNoCodesColumn = errors.New("codes column not found")
)

// ReadCodes reads the ODS code column from the first sheet of the
// workbook. Blank cells are skipped; order is preserved.
func ReadCodes(path string) (codes []string, err error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %q: %w", path, err)
	}

	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing workbook: %w", cerr))
		}
	}()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: %q", errNoSheet, path)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", errNoCodesColumn, sheet)
	}

	col := -1

	for i, cell := range rows[0] {
		if strings.TrimSpace(cell) == codesColumn {
			col = i

			break
		}
	}

	if col < 0 {
		return nil, fmt.Errorf("%w: no %q header in sheet %q", errNoCodesColumn, codesColumn, sheet)
	}

	for _, row := range rows[1:] {
		if col >= len(row) {
			continue
		}

		code := strings.TrimSpace(row[col])
		if code == "" {
			continue
		}

		codes = append(codes, code)
	}

	return codes, err
}

// AffiliationParams builds the directory query for one ODS code. The
// _include parameters pull the related organizations into the bundle.
func AffiliationParams(code string) url.Values {
	v := url.Values{}
	v.Set("active", "true")
	v.Set("primary-organization", code)
	v["_include"] = []string{
		"OrganizationAffiliation:primary-organization",
		"OrganizationAffiliation:participating-organization",
	}

	return v
}

// YOrganizationParams builds the fixed query of the special-case pass
// (RO209 is the NHS England region role).
func YOrganizationParams() url.Values {
	v := url.Values{}
	v.Set("active", "true")
	v.Set("type", "RO209")

	return v
}
