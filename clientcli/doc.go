// Package clientcli is a client for the folio content API, used by the
// folio-cli admin tool.
//
// It verifies the admin token, publishes markdown files as blog posts,
// uploads gallery images straight to object storage through signed URLs,
// and deletes and lists content. Profiles in ~/.folio/config.yaml keep the
// endpoint and admin token of each server.
//
// # Basic Usage
//
//	client, err := clientcli.New(&clientcli.Config{
//		Endpoint:   "https://folio.example.com",
//		AdminToken: os.Getenv("FOLIO_ADMIN_TOKEN"),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	results, err := client.Upload(ctx, clientcli.UploadOptions{
//		Paths: []string{"./sunset.jpg"},
//		Tags:  []string{"travel"},
//	})
//
// # Profile Configuration
//
//	configFile, err := clientcli.LoadConfigFile(clientcli.DefaultConfigPath())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("production")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := clientcli.New(clientcli.ConfigFromProfile(profile))
//
// # Output Formatting
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatUpload(os.Stdout, results)
package clientcli
