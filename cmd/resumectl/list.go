package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"resumify/internal/catalog"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates in catalog order",
	RunE:  runList,
}

var (
	listCategory string
	listPremium  string
)

func init() {
	listCmd.Flags().StringVarP(&listCategory, "category", "c", "", "Only show one category (ATS, Professional, Creative, Modern)")
	listCmd.Flags().StringVar(&listPremium, "premium", "", "Filter by tier: true or false")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	var tier *bool
	switch strings.ToLower(listPremium) {
	case "":
	case "true":
		v := true
		tier = &v
	case "false":
		v := false
		tier = &v
	default:
		return fmt.Errorf("invalid --premium value %q", listPremium)
	}

	templates := catalog.Default().Filter(func(t catalog.Template) bool {
		if listCategory != "" && !strings.EqualFold(string(t.Category), listCategory) {
			return false
		}
		return tier == nil || t.IsPremium == *tier
	})

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tTIER\tKIND")
	for _, t := range templates {
		tierName := "free"
		if t.IsPremium {
			tierName = "premium"
		}
		kind := "legacy"
		if t.IsDynamic {
			kind = "dynamic"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Category, tierName, kind)
	}
	return w.Flush()
}
