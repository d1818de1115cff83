package main

import (
	"github.com/spf13/cobra"

	"github.com/seecr/gmh-registration-service/internal/credential"
	credentialservice "github.com/seecr/gmh-registration-service/internal/credential/service"
	credentialstore "github.com/seecr/gmh-registration-service/internal/credential/store"
	"github.com/seecr/gmh-registration-service/internal/platform/logger"
)

func newRegistrantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registrant",
		Short: "Provision registrants",
	}

	var groupID, prefix string
	var isLTP bool
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a registrant for a namespace prefix",
		Example: `  gmh-registration-service registrant add --groupid ui-42 --prefix urn:nbn:nl:ui:42-
  gmh-registration-service registrant add --groupid ltp --prefix urn:nbn:nl:ui:99- --ltp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, cfg, err := openPostgres(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			svc := credential.NewService(credentialstore.NewPostgres(db),
				credentialservice.WithLogger(logger.New(cfg.Log.Level, cfg.Log.Format)),
			)
			registrant, err := svc.AddRegistrant(cmd.Context(), groupID, prefix, isLTP)
			if err != nil {
				return err
			}
			cmd.Printf("registrant %s added with id %s\n", registrant.GroupID, registrant.ID.String())
			return nil
		},
	}
	add.Flags().StringVar(&groupID, "groupid", "", "unique group id")
	add.Flags().StringVar(&prefix, "prefix", "", "URN:NBN namespace prefix, e.g. urn:nbn:nl:ui:42-")
	add.Flags().BoolVar(&isLTP, "ltp", false, "registrant is a long-term-preservation custodian")
	_ = add.MarkFlagRequired("groupid")
	_ = add.MarkFlagRequired("prefix")

	cmd.AddCommand(add)
	return cmd
}
