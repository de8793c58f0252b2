package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/calvinalkan/quickkv/internal/cli"
)

// Tests for print-config command.

func Test_Print_Config_Defaults_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("print-config")

	cli.AssertContains(t, stdout, "effective_cwd="+c.Dir)
	cli.AssertContains(t, stdout, "driver=json")
	cli.AssertContains(t, stdout, "path="+filepath.Join(c.Dir, "qkv.json"))
	cli.AssertContains(t, stdout, "table=json")
	cli.AssertContains(t, stdout, `indent="  "`)
	cli.AssertContains(t, stdout, "strict_paths=false")
}

func Test_Print_Config_Does_Not_Create_Snapshot_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("print-config")

	_, err := os.Stat(c.SnapshotPath())
	if !os.IsNotExist(err) {
		t.Fatalf("print-config must not open storage, stat err=%v", err)
	}
}

func Test_Print_Config_From_Config_File_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	writeFile(t, filepath.Join(c.Dir, ".qkv.json"), `{"path": "data/store.json", "table": "users"}`)

	stdout := c.MustRun("print-config")
	cli.AssertContains(t, stdout, "path="+filepath.Join(c.Dir, "data", "store.json"))
	cli.AssertContains(t, stdout, "table=users")
}

func Test_Print_Config_From_Config_File_With_Comments_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	writeFile(t, filepath.Join(c.Dir, ".qkv.json"), `{
		// Keep the file small.
		"indent": "",
		"strict_paths": true,
	}`)

	stdout := c.MustRun("print-config")
	cli.AssertContains(t, stdout, `indent=""`)
	cli.AssertContains(t, stdout, "strict_paths=true")
}

func Test_Print_Config_Sqlite_Driver_Derives_Path_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("--driver", "sqlite", "print-config")

	cli.AssertContains(t, stdout, "driver=sqlite")
	cli.AssertContains(t, stdout, "path="+filepath.Join(c.Dir, "qkv.sqlite"))
}

func Test_Print_Config_Memory_Driver_Has_No_Path_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("--driver=memory", "print-config")

	cli.AssertContains(t, stdout, "driver=memory")
	cli.AssertNotContains(t, stdout, "path=")
}

func Test_Print_Config_Explicit_Config_Flag_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	writeFile(t, filepath.Join(c.Dir, "custom.json"), `{"table": "custom"}`)

	stdout := c.MustRun("-c", "custom.json", "print-config")
	cli.AssertContains(t, stdout, "table=custom")
}

func Test_Print_Config_Explicit_Config_Flag_Long_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	writeFile(t, filepath.Join(c.Dir, "custom.json"), `{"table": "custom"}`)

	stdout := c.MustRun("--config=custom.json", "print-config")
	cli.AssertContains(t, stdout, "table=custom")
}

func Test_Print_Config_Absolute_Path_Is_Kept_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	abs := filepath.Join(t.TempDir(), "elsewhere.json")

	stdout := c.MustRun("--path", abs, "print-config")
	cli.AssertContains(t, stdout, "path="+abs)
}

// Tests for config errors.

func Test_Config_Explicit_Config_Not_Found_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("-c", "nonexistent.json", "print-config")
	cli.AssertContains(t, stderr, "config file not found")
}

func Test_Config_Invalid_JSON_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	writeFile(t, filepath.Join(c.Dir, ".qkv.json"), `{invalid json}`)

	stderr := c.MustFail("print-config")
	cli.AssertContains(t, stderr, "invalid")
}

func Test_Config_Unknown_Key_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	writeFile(t, filepath.Join(c.Dir, ".qkv.json"), `{"tabel": "typo"}`)

	stderr := c.MustFail("print-config")
	cli.AssertContains(t, stderr, "invalid config file")
	cli.AssertContains(t, stderr, "tabel")
}

func Test_Config_Unknown_Driver_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("--driver", "redis", "print-config")
	cli.AssertContains(t, stderr, "unknown driver")
	cli.AssertContains(t, stderr, `"redis"`)
	cli.AssertContains(t, stderr, "Global flags:")
}

func Test_Config_Empty_Path_Uses_Default_When_Invoked(t *testing.T) {
	t.Parallel()

	// Empty string in config file is treated as "not set" and uses default
	c := cli.NewCLI(t)
	writeFile(t, filepath.Join(c.Dir, ".qkv.json"), `{"path": ""}`)

	stdout := c.MustRun("print-config")
	cli.AssertContains(t, stdout, "path="+filepath.Join(c.Dir, "qkv.json"))
}

func Test_Config_Empty_Table_Via_CLI_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("--table=", "print-config")
	cli.AssertContains(t, stderr, "table cannot be empty")
}

// Tests for flag parsing errors.

func Test_Flags_Config_Requires_Argument_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("-c")
	cli.AssertContains(t, stderr, "flag needs an argument")
}

func Test_Flags_Table_Requires_Argument_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("--table")
	cli.AssertContains(t, stderr, "flag needs an argument")
}

func Test_Flags_Unknown_Flag_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("--unknown-flag", "print-config")
	cli.AssertContains(t, stderr, "unknown flag")
}

// Tests for unknown command.

func Test_Unknown_Command_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("not-a-command")
	cli.AssertContains(t, stderr, "unknown command")
	cli.AssertContains(t, stderr, "not-a-command")
}

func Test_Unknown_Command_Prints_Usage_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("badcmd")
	cli.AssertContains(t, stderr, "Usage:")
	cli.AssertContains(t, stderr, "Commands:")
}

// Tests for -C flag.

func Test_C_Flag_Changes_Work_Dir_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	subdir := filepath.Join(c.Dir, "subdir")

	writeFile(t, filepath.Join(subdir, ".qkv.json"), `{"table": "sub"}`)

	// The later -C wins over the --cwd added by the helper.
	stdout, stderr, exitCode := c.Run("-C", subdir, "print-config")

	if got, want := exitCode, 0; got != want {
		t.Errorf("exitCode=%d, want=%d; stderr=%s", got, want, stderr)
	}

	cli.AssertContains(t, stdout, "table=sub")
	cli.AssertContains(t, stdout, "path="+filepath.Join(subdir, "qkv.json"))
}

// Test precedence.

func Test_Config_Precedence_CLI_Overrides_File_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	writeFile(t, filepath.Join(c.Dir, ".qkv.json"), `{"table": "from-file"}`)

	stdout := c.MustRun("--table=from-cli", "print-config")
	cli.AssertContains(t, stdout, "table=from-cli")
}

func Test_Config_Precedence_Explicit_Config_Overrides_Default_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	writeFile(t, filepath.Join(c.Dir, ".qkv.json"), `{"table": "from-default"}`)
	writeFile(t, filepath.Join(c.Dir, "explicit.json"), `{"table": "from-explicit"}`)

	stdout := c.MustRun("-c", "explicit.json", "print-config")
	cli.AssertContains(t, stdout, "table=from-explicit")
}

// Tests for global config.

func Test_Config_Global_Config_Loaded_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	xdgDir := t.TempDir()

	writeFile(t, filepath.Join(xdgDir, "qkv", "config.json"), `{"normal_keys": true}`)

	c.Env["XDG_CONFIG_HOME"] = xdgDir
	stdout := c.MustRun("print-config")

	cli.AssertContains(t, stdout, "normal_keys=true")
	cli.AssertContains(t, stdout, "table=json")
}

func Test_Config_Global_Config_Falls_Back_To_Home_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	globalPath := filepath.Join(c.Env["HOME"], ".config", "qkv", "config.json")
	writeFile(t, globalPath, `{"lock": true}`)

	stdout := c.MustRun("print-config")

	cli.AssertContains(t, stdout, "lock=true")
	cli.AssertContains(t, stdout, "global_config="+globalPath)
}

func Test_Config_Global_Config_Invalid_JSON_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	xdgDir := t.TempDir()

	writeFile(t, filepath.Join(xdgDir, "qkv", "config.json"), `{invalid json}`)

	c.Env["XDG_CONFIG_HOME"] = xdgDir
	stderr := c.MustFail("print-config")
	cli.AssertContains(t, stderr, "invalid")
}

func Test_Config_Precedence_Full_Chain_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	xdgDir := t.TempDir()

	// Global sets table and driver, project overrides table, CLI overrides driver.
	writeFile(t, filepath.Join(xdgDir, "qkv", "config.json"), `{"table": "global", "driver": "sqlite", "strict_paths": true}`)
	writeFile(t, filepath.Join(c.Dir, ".qkv.json"), `{"table": "project"}`)

	c.Env["XDG_CONFIG_HOME"] = xdgDir
	stdout := c.MustRun("--driver=memory", "print-config")

	cli.AssertContains(t, stdout, "table=project")
	cli.AssertContains(t, stdout, "driver=memory")
	cli.AssertContains(t, stdout, "strict_paths=true")
}

// Tests for print-config sources output.

func Test_Print_Config_Shows_Defaults_Only_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	xdgDir := t.TempDir() // Empty, no config

	c.Env["XDG_CONFIG_HOME"] = xdgDir
	stdout := c.MustRun("print-config")

	cli.AssertContains(t, stdout, "# sources")
	cli.AssertContains(t, stdout, "(defaults only)")
}

func Test_Print_Config_Shows_Both_Sources_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	xdgDir := t.TempDir()

	globalPath := filepath.Join(xdgDir, "qkv", "config.json")
	writeFile(t, globalPath, `{"indent": "\t"}`)

	projectPath := filepath.Join(c.Dir, ".qkv.json")
	writeFile(t, projectPath, `{"table": "mine"}`)

	c.Env["XDG_CONFIG_HOME"] = xdgDir
	stdout := c.MustRun("print-config")

	cli.AssertContains(t, stdout, `indent="\t"`)
	cli.AssertContains(t, stdout, "# sources")
	cli.AssertContains(t, stdout, "global_config="+globalPath)
	cli.AssertContains(t, stdout, "project_config="+projectPath)
}

// Helper to write a file (creates directories as needed).
func writeFile(t *testing.T, path, content string) {
	t.Helper()

	dir := filepath.Dir(path)

	err := os.MkdirAll(dir, 0o750)
	if err != nil {
		t.Fatalf("failed to create dir %s: %v", dir, err)
	}

	err = os.WriteFile(path, []byte(content), 0o600)
	if err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
