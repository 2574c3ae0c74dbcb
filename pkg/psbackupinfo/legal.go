package psbackupinfo

// LegalNotice lists the license terms of psbackup's third-party
// dependencies, shown by the "legal" CLI command.
const LegalNotice = `psbackup

================================================================================
psbackup depends on the following third-party software:
================================================================================

github.com/spf13/cobra and github.com/spf13/pflag, used under the terms of
the Apache License, Version 2.0.

github.com/pkg/errors, used under the terms of the 2-Clause BSD License.

go.uber.org/zap and go.uber.org/multierr, used under the terms of the MIT
License.

github.com/fatih/color and github.com/mattn/go-colorable/go-isatty, used
under the terms of the MIT License.

github.com/dustin/go-humanize, used under the terms of the MIT License.

github.com/google/uuid, used under the terms of the 3-Clause BSD License.

github.com/bmatcuk/doublestar, used under the terms of the MIT License.

github.com/mutagen-io/extstat, used under the terms of the MIT License.

github.com/hectane/go-acl, used under the terms of the MIT License.

github.com/Microsoft/go-winio, used under the terms of the MIT License.

golang.org/x/sys, used under the terms of the 3-Clause BSD License.

github.com/stretchr/testify, used under the terms of the MIT License.
`
