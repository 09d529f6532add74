package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/auth"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/logger"
)

type userRow struct {
	Username string `json:"username" validate:"required,max=100"`
	Role     string `json:"role" validate:"omitempty,oneof=student teacher admin"` // default student
	Password string `json:"password" validate:"required,min=6"`
}

// POST /users
func CreateUserHandler(users auth.UserStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var row userRow
		if !decodeJSON(w, r, &row) {
			return
		}
		u, err := createUser(r, users, row)
		if err != nil {
			respondErr(w, r, log, err)
			return
		}
		log.Info("user created", "username", u.Username, "role", u.Role)
		respondJSON(w, http.StatusCreated, u)
	}
}

// POST /users/bulk  accepts a JSON array or a multipart CSV file= with
// username,role,password columns. Existing usernames are skipped.
func BulkCreateUsersHandler(users auth.UserStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rows []userRow
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "file required", http.StatusBadRequest)
				return
			}
			defer f.Close()
			if rows, err = parseCSV(f); err != nil {
				http.Error(w, "bad csv: "+err.Error(), http.StatusBadRequest)
				return
			}
		} else if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&rows); err != nil {
			http.Error(w, "expected JSON array or multipart file", http.StatusBadRequest)
			return
		}

		inserted, skipped := 0, 0
		for i, row := range rows {
			if err := validate.Struct(row); err != nil {
				http.Error(w, fmt.Sprintf("row %d: %v", i+1, err), http.StatusBadRequest)
				return
			}
			_, err := createUser(r, users, row)
			switch {
			case err == nil:
				inserted++
			case errors.Is(err, auth.ErrUserExists):
				skipped++
			default:
				respondErr(w, r, log, err)
				return
			}
		}
		log.Info("bulk user import", "inserted", inserted, "skipped", skipped)
		respondJSON(w, http.StatusOK, map[string]int{"inserted": inserted, "skipped": skipped})
	}
}

// GET /users?role=
func ListUsersHandler(users auth.UserStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := r.URL.Query().Get("role")
		list, err := users.ListUsers(r.Context())
		if err != nil {
			respondErr(w, r, log, err)
			return
		}
		out := make([]auth.User, 0, len(list))
		for _, u := range list {
			if role == "" || u.Role == role {
				out = append(out, u)
			}
		}
		respondJSON(w, http.StatusOK, out)
	}
}

func createUser(r *http.Request, users auth.UserStore, row userRow) (auth.User, error) {
	role := strings.ToLower(strings.TrimSpace(row.Role))
	if role == "" {
		role = auth.RoleStudent
	}
	u, err := auth.NewUser(row.Username, row.Password, role)
	if err != nil {
		return auth.User{}, err
	}
	if err := users.CreateUser(r.Context(), u); err != nil {
		return auth.User{}, err
	}
	return u, nil
}

func parseCSV(r io.Reader) ([]userRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, k := range []string{"username", "password"} {
		if _, ok := idx[k]; !ok {
			return nil, errors.New("missing column: " + k)
		}
	}
	var rows []userRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := userRow{
			Username: rec[idx["username"]],
			Password: rec[idx["password"]],
		}
		if i, ok := idx["role"]; ok {
			row.Role = strings.ToLower(rec[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}
