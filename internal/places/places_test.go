package places

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/stagehand/pkg/persistence"
)

func repositories(t *testing.T) map[string]Repository {
	t.Helper()
	db := persistence.NewDatabase(persistence.Config{Path: persistence.MemoryPath}, nil, &Place{})
	require.NoError(t, db.Open())
	t.Cleanup(func() { _ = db.Close() })

	return map[string]Repository{
		"memory": NewMemoryRepository(),
		"sqlite": NewStoreRepository(persistence.NewGormRepository[Place, string](db)),
	}
}

func TestRepository_SaveIsUpsert(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := repo.Save(ctx, Place{Name: "rome", Longitude: 12.49, Latitude: 41.89})
			require.NoError(t, err)
			_, err = repo.Save(ctx, Place{Name: "oslo", Longitude: 10.75, Latitude: 59.91})
			require.NoError(t, err)
			_, err = repo.Save(ctx, Place{Name: "rome", Longitude: 12.5, Latitude: 41.9})
			require.NoError(t, err)

			all, err := repo.All(ctx)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "oslo", all[0].Name)
			assert.Equal(t, Place{Name: "rome", Longitude: 12.5, Latitude: 41.9}, all[1])
		})
	}
}

func TestRepository_FindMissing(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			_, err := repo.Find(context.Background(), "atlantis")
			assert.ErrorIs(t, err, persistence.ErrEntityNotFound)
		})
	}
}

func TestPlace_Validate(t *testing.T) {
	tests := []struct {
		name    string
		place   Place
		wantErr bool
	}{
		{"valid", Place{Name: "x", Longitude: 180, Latitude: -90}, false},
		{"missing name", Place{Longitude: 1, Latitude: 1}, true},
		{"longitude out of range", Place{Name: "x", Longitude: 181}, true},
		{"latitude out of range", Place{Name: "x", Latitude: -90.5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.place.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPlace)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRouter(t *testing.T) {
	srv := httptest.NewServer(Router(NewMemoryRepository(), nil))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/", "application/json",
		strings.NewReader(`{"name":"lima","longitude":-77.04,"latitude":-12.05}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/", "application/json", strings.NewReader(`{"longitude":1}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/", "application/json", strings.NewReader(`not json`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/")
	require.NoError(t, err)
	var all []Place
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&all))
	resp.Body.Close()
	assert.Equal(t, []Place{{Name: "lima", Longitude: -77.04, Latitude: -12.05}}, all)

	resp, err = http.Get(srv.URL + "/lima")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/quito")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
