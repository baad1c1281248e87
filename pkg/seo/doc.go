// Package seo drives category and tag generation for draft content.
//
// For each draft item the driver asks the provider for the categories the
// item is missing (MaxCategories minus its current count), find-or-creates
// each suggested name, and assigns it. Tags follow the same path with
// MaxTags. Finally the default category is removed from the item.
//
//	driver, err := seo.NewDriver(seo.Config{
//	    Provider: provider,
//	    Store:    store,
//	    Options:  seo.OptionsFromConfig(cfg.SEO),
//	    Logger:   logger,
//	})
//	report, err := driver.Run(ctx)
//
// Each run gets a run_id that is attached to every log entry. Terms are
// cached per run, so a name suggested for several items is looked up once.
package seo
