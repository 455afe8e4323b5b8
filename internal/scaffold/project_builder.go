package scaffold

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/jakoblorz/express-ts-generator/internal/execx"
	"github.com/jakoblorz/express-ts-generator/internal/filesystem"
	"github.com/jakoblorz/express-ts-generator/internal/models"
)

// ProjectBuilder writes the tree express-generator emits into a mock
// filesystem, for tests of the materializer and the rewrite pipeline.
type ProjectBuilder struct {
	fs   *filesystem.MockFileSystem
	dir  string
	name string
	view models.ViewEngine
	git  bool
}

// NewProjectBuilder creates a builder generating into dir. The package name
// is derived from the directory name the way express-generator does.
func NewProjectBuilder(fs *filesystem.MockFileSystem, dir string) *ProjectBuilder {
	if fs == nil {
		fs = filesystem.NewMockFileSystem()
	}
	return &ProjectBuilder{
		fs:   fs,
		dir:  dir,
		name: packageName(filepath.Base(dir)),
		view: models.ViewNone,
	}
}

// WithView selects the view engine templates
func (pb *ProjectBuilder) WithView(view models.ViewEngine) *ProjectBuilder {
	pb.view = view
	return pb
}

// WithGitIgnore adds the generator's .gitignore
func (pb *ProjectBuilder) WithGitIgnore() *ProjectBuilder {
	pb.git = true
	return pb
}

// FS returns the underlying mock filesystem
func (pb *ProjectBuilder) FS() *filesystem.MockFileSystem {
	return pb.fs
}

// Build writes the generated files and returns the filesystem
func (pb *ProjectBuilder) Build() *filesystem.MockFileSystem {
	for rel, content := range pb.files() {
		pb.fs.AddFile(filepath.Join(pb.dir, filepath.FromSlash(rel)), []byte(content))
	}
	pb.fs.AddDir(filepath.Join(pb.dir, "public", "images"))
	pb.fs.AddDir(filepath.Join(pb.dir, "public", "javascripts"))
	return pb.fs
}

func (pb *ProjectBuilder) files() map[string]string {
	files := map[string]string{
		models.ManifestFile:            pb.manifest(),
		"app.js":                       pb.app(),
		"routes/index.js":              indexRoute,
		"routes/users.js":              usersRoute,
		"bin/www":                      strings.ReplaceAll(bootstrap, "{{name}}", pb.name),
		"public/stylesheets/style.css": stylesheet,
	}

	switch pb.view {
	case models.ViewEJS:
		files["views/index.ejs"] = "<!DOCTYPE html>\n<html>\n  <head>\n    <title><%= title %></title>\n  </head>\n  <body>\n    <h1><%= title %></h1>\n  </body>\n</html>\n"
		files["views/error.ejs"] = "<h1><%= message %></h1>\n<h2><%= error.status %></h2>\n<pre><%= error.stack %></pre>\n"
	case models.ViewPug:
		files["views/layout.pug"] = "doctype html\nhtml\n  head\n    title= title\n  body\n    block content\n"
		files["views/index.pug"] = "extends layout\n\nblock content\n  h1= title\n"
		files["views/error.pug"] = "extends layout\n\nblock content\n  h1= message\n  h2= error.status\n  pre #{error.stack}\n"
	default:
		files["public/index.html"] = "<html>\n\n<head>\n  <title>Express</title>\n</head>\n\n<body>\n  <h1>Express</h1>\n</body>\n\n</html>\n"
	}

	if pb.git {
		files[models.GitIgnoreFile] = gitIgnore
	}

	return files
}

func (pb *ProjectBuilder) manifest() string {
	deps := []string{
		`"cookie-parser": "~1.4.4"`,
		`"debug": "~2.6.9"`,
	}
	switch pb.view {
	case models.ViewEJS:
		deps = append(deps, `"ejs": "~2.6.1"`)
	case models.ViewPug:
		deps = append(deps, `"pug": "2.0.0-beta11"`)
	}
	deps = append(deps, `"express": "~4.16.1"`)
	if pb.view != models.ViewNone {
		deps = append(deps, `"http-errors": "~1.6.3"`)
	}
	deps = append(deps, `"morgan": "~1.9.1"`)

	return fmt.Sprintf(`{
  "name": %q,
  "version": "0.0.0",
  "private": true,
  "scripts": {
    "start": "node ./bin/www"
  },
  "dependencies": {
    %s
  }
}
`, pb.name, strings.Join(deps, ",\n    "))
}

func (pb *ProjectBuilder) app() string {
	if pb.view == models.ViewNone {
		return appNoView
	}
	return strings.ReplaceAll(appWithView, "{{view}}", pb.view.String())
}

// GeneratorHandler returns a mock runner handler that behaves like
// express-generator: it writes the generated tree for the requested
// directory and view flags into fs.
func GeneratorHandler(fs *filesystem.MockFileSystem) execx.MockHandler {
	return func(cmd execx.Command) (string, error) {
		var (
			target string
			view   = models.ViewEngine("jade")
			git    bool
		)
		for _, arg := range cmd.Args {
			switch {
			case arg == GeneratorPackage:
			case arg == "--git":
				git = true
			case arg == "--no-view":
				view = models.ViewNone
			case arg == "--force":
			case strings.HasPrefix(arg, "--view="):
				view = models.ViewEngine(strings.TrimPrefix(arg, "--view="))
			default:
				target = arg
			}
		}
		if !view.IsValid() {
			return "", fmt.Errorf("%w: unsupported view %q", execx.ErrCommandFailed, view)
		}

		dir := target
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(cmd.Dir, dir)
		}
		fs.AddDir(dir)

		pb := NewProjectBuilder(fs, dir).WithView(view)
		if git {
			pb.WithGitIgnore()
		}
		pb.Build()
		return "", nil
	}
}

// packageName sanitizes a directory name into an npm package name
func packageName(dir string) string {
	name := strings.ToLower(path.Base(filepath.ToSlash(dir)))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '~', r == '*':
			return r
		default:
			return '-'
		}
	}, name)
	return strings.Trim(name, "-.")
}

const appWithView = `var createError = require('http-errors');
var express = require('express');
var path = require('path');
var cookieParser = require('cookie-parser');
var logger = require('morgan');

var indexRouter = require('./routes/index');
var usersRouter = require('./routes/users');

var app = express();

// view engine setup
app.set('views', path.join(__dirname, 'views'));
app.set('view engine', '{{view}}');

app.use(logger('dev'));
app.use(express.json());
app.use(express.urlencoded({ extended: false }));
app.use(cookieParser());
app.use(express.static(path.join(__dirname, 'public')));

app.use('/', indexRouter);
app.use('/users', usersRouter);

// catch 404 and forward to error handler
app.use(function(req, res, next) {
  next(createError(404));
});

// error handler
app.use(function(err, req, res, next) {
  // set locals, only providing error in development
  res.locals.message = err.message;
  res.locals.error = req.app.get('env') === 'development' ? err : {};

  // render the error page
  res.status(err.status || 500);
  res.render('error');
});

module.exports = app;
`

const appNoView = `var express = require('express');
var path = require('path');
var cookieParser = require('cookie-parser');
var logger = require('morgan');

var indexRouter = require('./routes/index');
var usersRouter = require('./routes/users');

var app = express();

app.use(logger('dev'));
app.use(express.json());
app.use(express.urlencoded({ extended: false }));
app.use(cookieParser());
app.use(express.static(path.join(__dirname, 'public')));

app.use('/', indexRouter);
app.use('/users', usersRouter);

module.exports = app;
`

const indexRoute = `var express = require('express');
var router = express.Router();

/* GET home page. */
router.get('/', function(req, res, next) {
  res.render('index', { title: 'Express' });
});

module.exports = router;
`

const usersRoute = `var express = require('express');
var router = express.Router();

/* GET users listing. */
router.get('/', function(req, res, next) {
  res.send('respond with a resource');
});

module.exports = router;
`

const bootstrap = `#!/usr/bin/env node

/**
 * Module dependencies.
 */

var app = require('../app');
var debug = require('debug')('{{name}}:server');
var http = require('http');

/**
 * Get port from environment and store in Express.
 */

var port = normalizePort(process.env.PORT || '3000');
app.set('port', port);

/**
 * Create HTTP server.
 */

var server = http.createServer(app);

/**
 * Listen on provided port, on all network interfaces.
 */

server.listen(port);
server.on('error', onError);
server.on('listening', onListening);

/**
 * Normalize a port into a number, string, or false.
 */

function normalizePort(val) {
  var port = parseInt(val, 10);

  if (isNaN(port)) {
    // named pipe
    return val;
  }

  if (port >= 0) {
    // port number
    return port;
  }

  return false;
}

/**
 * Event listener for HTTP server "error" event.
 */

function onError(error) {
  if (error.syscall !== 'listen') {
    throw error;
  }

  var bind = typeof port === 'string'
    ? 'Pipe ' + port
    : 'Port ' + port;

  // handle specific listen errors with friendly messages
  switch (error.code) {
    case 'EACCES':
      console.error(bind + ' requires elevated privileges');
      process.exit(1);
      break;
    case 'EADDRINUSE':
      console.error(bind + ' is already in use');
      process.exit(1);
      break;
    default:
      throw error;
  }
}

/**
 * Event listener for HTTP server "listening" event.
 */

function onListening() {
  var addr = server.address();
  var bind = typeof addr === 'string'
    ? 'pipe ' + addr
    : 'port ' + addr.port;
  debug('Listening on ' + bind);
}
`

const stylesheet = `body {
  padding: 50px;
  font: 14px "Lucida Grande", Helvetica, Arial, sans-serif;
}

a {
  color: #00B7FF;
}
`

const gitIgnore = `# Logs
logs
*.log
npm-debug.log*

# Dependency directories
node_modules/
jspm_packages/

# Optional npm cache directory
.npm

# dotenv environment variables file
.env
`
