package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/surdata/pedidos_backend/config"
	"bitbucket.org/surdata/pedidos_backend/snapshot"
	"bitbucket.org/surdata/pedidos_backend/utils"
)

// scope-snapshot exports a scope to a JSON snapshot file, imports a file
// into a scope, or copies one scope onto another.
//
// Usage:
//
//	scope-snapshot -op export -tenant t1 -branch b1 -file scope.json
//	scope-snapshot -op import -tenant t2 -branch b2 -file scope.json [-backup]
//	scope-snapshot -op copy -tenant t1 -branch b1 -dest-tenant t2 -dest-branch b2 [-backup]
func main() {
	op := flag.String("op", "", "Required: export | import | copy | restore")
	tenant := flag.String("tenant", "", "Required: tenant id")
	branch := flag.String("branch", "", "Required: branch id")
	file := flag.String("file", "", "Snapshot file (export target / import source)")
	destTenant := flag.String("dest-tenant", "", "Destination tenant id (copy)")
	destBranch := flag.String("dest-branch", "", "Destination branch id (copy)")
	backup := flag.Bool("backup", false, "Save a backup before overwriting the destination")
	flag.Parse()

	if strings.TrimSpace(*tenant) == "" || strings.TrimSpace(*branch) == "" {
		fmt.Fprintln(os.Stderr, "-tenant and -branch are required")
		os.Exit(1)
	}
	scope := snapshot.Scope{TenantId: *tenant, BranchId: *branch}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	logger := config.GetLogger()
	engine := snapshot.NewEngine(snapshot.NewGormStore(db), logger, nil)

	ctx := utils.SetTenantIdInContext(context.Background(), scope.TenantId)
	ctx = utils.SetBranchIdInContext(ctx, scope.BranchId)
	// the engine reaches across scopes; the per-request guard must not apply
	ctx = utils.SetSkipTenantScopeInContext(ctx, true)

	switch *op {
	case "export":
		if *file == "" {
			fmt.Fprintln(os.Stderr, "-file is required for export")
			os.Exit(1)
		}
		doc, err := engine.ExportScope(ctx, scope, "cli:"+scope.String())
		if err != nil {
			fmt.Fprintln(os.Stderr, "export failed:", err)
			os.Exit(1)
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, "encode failed:", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*file, data, 0o644); err != nil {
			fmt.Fprintln(os.Stderr, "write failed:", err)
			os.Exit(1)
		}
		fmt.Printf("exported scope %s to %s (%d providers)\n", scope.String(), *file, len(doc.Tables.Providers))

	case "import":
		if *file == "" {
			fmt.Fprintln(os.Stderr, "-file is required for import")
			os.Exit(1)
		}
		data, err := os.ReadFile(*file)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read failed:", err)
			os.Exit(1)
		}
		result, err := engine.ImportData(ctx, data, scope, snapshot.ImportOptions{BackupDestination: *backup})
		if err != nil {
			fmt.Fprintln(os.Stderr, "import failed:", err)
			os.Exit(1)
		}
		printResult(result)

	case "copy":
		if strings.TrimSpace(*destTenant) == "" || strings.TrimSpace(*destBranch) == "" {
			fmt.Fprintln(os.Stderr, "-dest-tenant and -dest-branch are required for copy")
			os.Exit(1)
		}
		dest := snapshot.Scope{TenantId: *destTenant, BranchId: *destBranch}
		result, err := engine.CopyScope(ctx, scope, dest, snapshot.CopyOptions{BackupSource: *backup})
		if err != nil {
			fmt.Fprintln(os.Stderr, "copy failed:", err)
			os.Exit(1)
		}
		printResult(result)

	case "restore":
		if err := engine.RestoreBackup(ctx, scope); err != nil {
			fmt.Fprintln(os.Stderr, "restore failed:", err)
			os.Exit(1)
		}
		fmt.Printf("restored scope %s from its backup\n", scope.String())

	default:
		fmt.Fprintln(os.Stderr, "-op must be export, import, copy or restore")
		os.Exit(1)
	}
}

func printResult(result *snapshot.Result) {
	fmt.Println("status:", result.Status)
	if result.Report != "" {
		fmt.Println(result.Report)
	}
	if result.Status != snapshot.StatusSuccess {
		os.Exit(2)
	}
}
