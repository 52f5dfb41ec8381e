// provider-mock serves a fake punch provider for local runs. Every weekday
// each employee gets four punches whose times drift by a few minutes, and
// one employee in ten forgets the last punch.
package main

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const employeeCount = 25

type employee struct {
	Codigo       string `json:"codigo"`
	Nome         string `json:"nome"`
	Email        string `json:"email"`
	Departamento string `json:"departamento"`
}

type marcacao struct {
	FuncionarioID string `json:"funcionario_id"`
	DataHora      string `json:"data_hora"`
	Tipo          string `json:"tipo"`
}

func employees() []employee {
	list := make([]employee, employeeCount)
	for i := range list {
		list[i] = employee{
			Codigo:       fmt.Sprintf("T%03d", i+1),
			Nome:         fmt.Sprintf("Colaborador %d", i+1),
			Email:        fmt.Sprintf("colaborador%d@example.com", i+1),
			Departamento: "Operacoes",
		}
	}
	return list
}

// drift returns a stable offset in [-10, 20] minutes for key.
func drift(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()%31) - 10
}

func punchesFor(emp employee, day time.Time) []marcacao {
	if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		return nil
	}
	date := day.Format(time.DateOnly)
	at := func(hour, minute int, slot string) string {
		t := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
		t = t.Add(time.Duration(drift(emp.Codigo+date+slot)) * time.Minute)
		return t.Format("2006-01-02 15:04:05")
	}

	out := []marcacao{
		{emp.Codigo, at(8, 0, "in1"), "ENTRADA"},
		{emp.Codigo, at(12, 0, "out1"), "SAIDA"},
		{emp.Codigo, at(14, 0, "in2"), "ENTRADA"},
		{emp.Codigo, at(18, 0, "out2"), "SAIDA"},
	}
	if drift(emp.Codigo+date)%10 == 0 {
		out = out[:3]
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func listEmployees(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"employees": employees()})
}

func listPunches(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse(time.DateOnly, r.URL.Query().Get("start"))
	if err != nil {
		http.Error(w, "start must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	end, err := time.Parse(time.DateOnly, r.URL.Query().Get("end"))
	if err != nil || end.Before(start) {
		http.Error(w, "end must be YYYY-MM-DD and not before start", http.StatusBadRequest)
		return
	}

	var all []marcacao
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		for _, emp := range employees() {
			all = append(all, punchesFor(emp, day)...)
		}
	}
	log.Info().Str("start", start.Format(time.DateOnly)).Str("end", end.Format(time.DateOnly)).Int("count", len(all)).Msg("Served punches")
	writeJSON(w, map[string]any{"marcacoes": all})
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	r := mux.NewRouter()
	r.HandleFunc("/employees", listEmployees).Methods(http.MethodGet)
	r.HandleFunc("/punches", listPunches).Methods(http.MethodGet)

	log.Info().Msg("Provider mock server starting on port 8081...")
	if err := http.ListenAndServe(":8081", r); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}
