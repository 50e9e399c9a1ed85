// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/erigon-lib/common"
)

func TestFetchCompiledByIdentifierSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"compiled_class":"aGVsbG8="}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, nil)
	require.NoError(t, err)

	body, err := c.FetchCompiledByIdentifier(context.Background(), common.BytesToHash([]byte{1}))
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), body)
}

func TestFetchCompiledByIdentifier404IsPermanent(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := New(srv.URL, nil)
	require.NoError(t, err)

	_, err = c.FetchCompiledByIdentifier(context.Background(), common.BytesToHash([]byte{2}))
	require.Error(t, err)
	require.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestFetchCompiledByIdentifierRetriesOn5xxThenSucceeds(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"compiled_class":"aGk="}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, nil)
	require.NoError(t, err)

	body, err := c.FetchCompiledByIdentifier(context.Background(), common.BytesToHash([]byte{3}))
	require.NoError(t, err)
	require.Equal(t, []byte("hi"), body)
	require.GreaterOrEqual(t, atomic.LoadInt32(&hits), int32(3))
}

func TestNewRejectsInvalidURL(t *testing.T) {
	_, err := New("://bad-url", nil)
	require.Error(t, err)
}
