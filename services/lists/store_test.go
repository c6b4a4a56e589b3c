// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package lists

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/tabular/services/dataset"
)

func tempListStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lists.json")
	s, err := NewStore(path)
	require.NoError(t, err)
	return s, path
}

func stagedVendors(vendors ...string) *dataset.Staging {
	rows := make([]map[string]string, len(vendors))
	for i, v := range vendors {
		rows[i] = map[string]string{"Vendor Name": v, "Status": "open"}
	}
	return dataset.NewStaging([]string{"Vendor Name", "Status"}, rows, "")
}

func TestImportColumn(t *testing.T) {
	s, path := tempListStore(t)
	staging := stagedVendors("Beta", "Alpha", " Beta ", "", "nan")

	n, err := s.ImportColumn(staging, "Vendor Name")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "trimmed duplicates and junk markers collapse")

	reloaded, err := NewStore(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Beta"}, reloaded.Saved()["Vendor Name"])
}

func TestImportColumnMergesWithExisting(t *testing.T) {
	s, _ := tempListStore(t)
	require.NoError(t, s.Replace(map[string][]string{"Vendor Name": {"Gamma"}}))

	_, err := s.ImportColumn(stagedVendors("Alpha"), "Vendor Name")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Gamma"}, s.Saved()["Vendor Name"])
}

func TestImportColumnErrors(t *testing.T) {
	s, _ := tempListStore(t)

	_, err := s.ImportColumn(stagedVendors("x"), "Ghost")
	assert.ErrorIs(t, err, dataset.ErrNotFound)

	_, err = s.ImportColumn(stagedVendors("", "nan"), "Vendor Name")
	assert.ErrorIs(t, err, dataset.ErrInvalidArgument)
}

func TestOptionsMergeSavedAndLive(t *testing.T) {
	s, _ := tempListStore(t)
	require.NoError(t, s.Replace(map[string][]string{"Vendor Name": {"Zulu"}}))

	opts := s.Options(stagedVendors("Alpha", "Beta"))
	assert.Equal(t, []string{"Alpha", "Beta", "Zulu"}, opts["Vendor Name"])
	assert.Equal(t, []string{"open"}, opts["Status"])
}

func TestSavedReturnsCopy(t *testing.T) {
	s, _ := tempListStore(t)
	require.NoError(t, s.Replace(map[string][]string{"Vendor Name": {"Alpha"}}))

	saved := s.Saved()
	saved["Vendor Name"][0] = "mutated"
	assert.Equal(t, "Alpha", s.Saved()["Vendor Name"][0])
}
