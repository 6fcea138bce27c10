package main

import (
	"encoding/json"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/anime-shed/doc-inspector-go/internal/config"
)

// NewProfilesCmd creates the profiles command.
func NewProfilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List the named quality profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			profiles := config.Profiles()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(profiles)
			}

			rows := make([][]string, 0, len(profiles))
			for _, p := range profiles {
				rows = append(rows, []string{"`" + p.Key + "`", p.Name, p.Description})
			}
			return markdown.NewMarkdown(cmd.OutOrStdout()).
				H2("Quality Profiles").
				PlainText("").
				Table(markdown.TableSet{
					Header: []string{"Key", "Name", "Description"},
					Rows:   rows,
				}).
				Build()
		},
	}

	cmd.Flags().BoolP("json", "j", false, "Output JSON instead of Markdown")

	return cmd
}
