package config

import "testing"

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("Validate(Default()) = %v, want nil", err)
	}
}

func TestValidateRejectsMissingHost(t *testing.T) {
	cfg := Default()
	cfg.Host = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("Validate() with empty Host = nil, want error")
	}
}

func TestValidateRejectsOutOfRangePort(t *testing.T) {
	cfg := Default()
	cfg.Port = 70000
	if err := Validate(cfg); err == nil {
		t.Fatal("Validate() with Port=70000 = nil, want error")
	}
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	if err := Validate(cfg); err == nil {
		t.Fatal("Validate() with LogLevel=verbose = nil, want error")
	}
}

func TestValidateChecksNestedRoutes(t *testing.T) {
	cfg := Default()
	cfg.Routes = []RouteConfig{{Database: "", User: "app"}}
	if err := Validate(cfg); err == nil {
		t.Fatal("Validate() with empty route Database = nil, want error")
	}
}
